package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

var testLogger = log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})

// testStore runs the behaviour every Store must share.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)

	require.NoError(t, s.Save(ctx, "b", []byte(`{"v":1}`)))
	require.NoError(t, s.Save(ctx, "a", []byte(`{"v":2}`)))
	require.NoError(t, s.Save(ctx, "b", []byte(`{"v":3}`)))

	data, err := s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, `{"v":3}`, string(data))

	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, bad := range []string{"", "../x", "a/b", `a\b`} {
		assert.Error(t, s.Save(ctx, bad, []byte("{}")), bad)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	testStore(t, NewMemoryStore())
}

func TestMemoryStoreCopies(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Save(context.Background(), "x", buf))
	buf[0] = 'z'
	data, err := s.Load(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	s, err := NewFileStore(filepath.Join(t.TempDir(), "games"), testLogger)
	require.NoError(t, err)
	testStore(t, s)
}

func TestFileStoreSkipsStrayFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewFileStore(dir, testLogger)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "one", []byte("{}")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.json.tmp.123"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, ids)
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "snap.json")
	require.NoError(t, writeFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, writeFileAtomic(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files should remain")
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	t.Parallel()

	err := writeFileAtomic(filepath.Join(t.TempDir(), "nope", "snap.json"), []byte("x"), 0o644)
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("RIICHIBOOK_TEST_REDIS")
	if addr == "" {
		t.Skip("RIICHIBOOK_TEST_REDIS not set")
	}
	cli, err := DialRedis(context.Background(), addr, "")
	require.NoError(t, err)
	defer cli.Close()

	prefix := "riichibook:test:" + t.Name() + ":"
	s := NewRedisStore(cli, testLogger, WithPrefix(prefix))
	ids, err := s.List(context.Background())
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, s.Delete(context.Background(), id))
	}
	testStore(t, s)
}

func TestSaveAndLoadGame(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, err := game.NewGame(ruleset.MLeague, []string{"A", "B", "C", "D"}, seat.First(4), game.WithLogger(testLogger))
	require.NoError(t, err)
	require.NoError(t, g.Start())
	require.NoError(t, g.StartCurrentHand())
	require.NoError(t, g.PlayerRiichi(seat.West))

	s := NewMemoryStore()
	require.NoError(t, SaveGame(ctx, s, "session-1", g))
	loaded, err := LoadGame(ctx, s, "session-1", game.WithLogger(testLogger))
	require.NoError(t, err)
	assert.Equal(t, g, loaded)

	_, err = LoadGame(ctx, s, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "broken", []byte(`{"state":`)))
	_, err = LoadGame(ctx, s, "broken")
	assert.Error(t, err)
}
