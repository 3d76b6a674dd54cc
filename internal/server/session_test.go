package server

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/gameid"
	"github.com/lox/riichibook/internal/seat"
	"github.com/lox/riichibook/internal/store"
)

var testLogger = log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})

var fourNames = []string{"Aki", "Ben", "Chie", "Dan"}

func newTestSessions(t *testing.T, opts ...SessionsOption) (*Sessions, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewSessions(st, testLogger, opts...), st
}

func TestCreateSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, st := newTestSessions(t)

	sess, err := sessions.Create(ctx, CreateSessionData{Names: fourNames})
	require.NoError(t, err)
	require.NoError(t, gameid.Validate(sess.ID()))
	assert.Equal(t, 1, sessions.Len())

	g, err := store.LoadGame(ctx, st, sess.ID())
	require.NoError(t, err)
	assert.True(t, g.IsNotStarted())
	assert.Equal(t, "mleague", g.Ruleset().Name)
	assert.Equal(t, "Aki", g.PlayerName(seat.East))

	info := sess.info()
	assert.Equal(t, fourNames, info.Players)
	assert.Equal(t, "E1-0", info.Hand)
	assert.Equal(t, 0, info.Watchers)
}

func TestCreateSessionStartingWinds(t *testing.T) {
	t.Parallel()
	sessions, _ := newTestSessions(t)

	sess, err := sessions.Create(context.Background(), CreateSessionData{
		Ruleset:       "sanma",
		Names:         []string{"Aki", "Ben", "Chie"},
		StartingWinds: []string{"w", "east", "south"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ben", "Chie", "Aki"}, sess.info().Players)
}

func TestCreateSessionRejects(t *testing.T) {
	t.Parallel()

	tests := map[string]CreateSessionData{
		"unknown ruleset": {Ruleset: "riichi-city", Names: fourNames},
		"too few names":   {Names: fourNames[:3]},
		"bad wind":        {Names: fourNames, StartingWinds: []string{"e", "s", "w", "up"}},
		"repeated wind":   {Names: fourNames, StartingWinds: []string{"e", "e", "w", "n"}},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			sessions, _ := newTestSessions(t)
			_, err := sessions.Create(context.Background(), req)
			assert.Error(t, err)
			assert.Equal(t, 0, sessions.Len())
		})
	}
}

func TestApplyPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, st := newTestSessions(t)
	sess, err := sessions.Create(ctx, CreateSessionData{Names: fourNames})
	require.NoError(t, err)

	for _, line := range []string{"start", "deal", "riichi ben"} {
		_, _, err := sessions.Apply(ctx, sess.ID(), line)
		require.NoError(t, err, line)
	}
	applied, snapshot, err := sessions.Apply(ctx, sess.ID(), "ron aki ben 3 30")
	require.NoError(t, err)
	assert.Equal(t, "ron aki ben 3 30", applied)

	decoded, err := game.Unmarshal(snapshot)
	require.NoError(t, err)
	assert.Equal(t, 25000-3900, decoded.PlayerPoints(seat.East))
	assert.Equal(t, 25000+3900, decoded.PlayerPoints(seat.South))

	stored, err := store.LoadGame(ctx, st, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, decoded, stored)
}

func TestApplyErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, st := newTestSessions(t)
	sess, err := sessions.Create(ctx, CreateSessionData{Names: fourNames})
	require.NoError(t, err)
	before, err := st.Load(ctx, sess.ID())
	require.NoError(t, err)

	_, _, err = sessions.Apply(ctx, "missing", "start")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, _, err = sessions.Apply(ctx, sess.ID(), "# just a comment")
	assert.Error(t, err)

	_, _, err = sessions.Apply(ctx, sess.ID(), "shuffle")
	assert.Error(t, err)

	_, _, err = sessions.Apply(ctx, sess.ID(), "deal")
	assert.ErrorIs(t, err, game.ErrIllegalTransition)

	after, err := st.Load(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReapEvictsIdleSessions(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	sessions, _ := newTestSessions(t, WithClock(mClock), WithIdleTimeout(time.Hour))

	idle, err := sessions.Create(ctx, CreateSessionData{Names: fourNames})
	require.NoError(t, err)
	watched, err := sessions.Create(ctx, CreateSessionData{Names: fourNames})
	require.NoError(t, err)
	watched.attach(&Connection{}, mClock.Now())

	mClock.Advance(30 * time.Minute).MustWait(ctx)
	assert.Empty(t, sessions.Reap())

	mClock.Advance(31 * time.Minute).MustWait(ctx)
	assert.Equal(t, []string{idle.ID()}, sessions.Reap())
	assert.Equal(t, 1, sessions.Len())

	// An evicted session comes back from the store.
	resumed, err := sessions.Get(ctx, idle.ID())
	require.NoError(t, err)
	assert.NotSame(t, idle, resumed)
	assert.Equal(t, 2, sessions.Len())
}

func TestJoinAfterEvictionUsesLiveSession(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	sessions, _ := newTestSessions(t, WithClock(mClock), WithIdleTimeout(time.Hour))
	sess, err := sessions.Create(ctx, CreateSessionData{Names: fourNames})
	require.NoError(t, err)

	// A lookup that loses the race with the reaper holds an evicted copy.
	stale, err := sessions.Get(ctx, sess.ID())
	require.NoError(t, err)
	mClock.Advance(61 * time.Minute).MustWait(ctx)
	require.Equal(t, []string{sess.ID()}, sessions.Reap())

	conn := &Connection{}
	assert.False(t, stale.attach(conn, mClock.Now()))
	assert.Empty(t, stale.conns)

	joined, err := sessions.Join(ctx, sess.ID(), conn)
	require.NoError(t, err)
	assert.NotSame(t, stale, joined)
	live, ok := sessions.live(sess.ID())
	require.True(t, ok)
	assert.Same(t, joined, live)
	assert.Equal(t, 1, joined.info().Watchers)

	// Commands land on the registered copy, not the evicted one.
	_, _, err = sessions.Apply(ctx, sess.ID(), "start")
	require.NoError(t, err)
	assert.True(t, joined.game.IsOnGoing())
	assert.False(t, stale.game.IsOnGoing())

	mClock.Advance(2 * time.Hour).MustWait(ctx)
	assert.Empty(t, sessions.Reap(), "watched sessions stay live")
}

func TestApplyKeepsSessionAlive(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	sessions, _ := newTestSessions(t, WithClock(mClock), WithIdleTimeout(time.Hour))
	sess, err := sessions.Create(ctx, CreateSessionData{Names: fourNames})
	require.NoError(t, err)

	mClock.Advance(50 * time.Minute).MustWait(ctx)
	_, _, err = sessions.Apply(ctx, sess.ID(), "start")
	require.NoError(t, err)
	mClock.Advance(50 * time.Minute).MustWait(ctx)
	assert.Empty(t, sessions.Reap())
}

func TestRunReaperStopsWithContext(t *testing.T) {
	t.Parallel()

	sessions, _ := newTestSessions(t, WithClock(quartz.NewMock(t)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sessions.RunReaper(ctx, time.Minute)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
