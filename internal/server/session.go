package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/riichibook/internal/command"
	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/gameid"
	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
	"github.com/lox/riichibook/internal/store"
)

// DefaultIdleTimeout is how long an unwatched session stays in memory.
const DefaultIdleTimeout = 2 * time.Hour

// ErrSessionNotFound is returned for an id that is neither live nor stored.
var ErrSessionNotFound = errors.New("session not found")

// RulesetLookup resolves a ruleset by name; config.Config.Ruleset fits.
type RulesetLookup func(name string) (ruleset.Ruleset, error)

func presetLookup(name string) (ruleset.Ruleset, error) {
	rs, ok := ruleset.Preset(name)
	if !ok {
		return ruleset.Ruleset{}, fmt.Errorf("unknown ruleset %q", name)
	}
	return rs, nil
}

// Session is one live game and the connections watching it. The mutex
// serializes every command against the game.
type Session struct {
	id         string
	mu         sync.Mutex
	game       *game.Game
	conns      map[*Connection]bool
	lastActive time.Time
	evicted    bool
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Snapshot encodes the current game state.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return game.Marshal(s.game)
}

func (s *Session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfoFromGame(s.id, s.game, len(s.conns))
}

// attach adds c as a watcher. It fails once the session has been evicted.
func (s *Session) attach(c *Connection, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return false
	}
	s.conns[c] = true
	s.lastActive = now
	return true
}

func (s *Session) detach(c *Connection, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
	s.lastActive = now
}

func (s *Session) broadcast(msgs ...*Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		for _, msg := range msgs {
			_ = c.SendMessage(msg) // a full buffer closes the connection
		}
	}
}

// Sessions owns every live session. Snapshots go to the store after each
// successful command, so an evicted session can be resumed by id.
type Sessions struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	store       store.Store
	rulesets    RulesetLookup
	ids         *gameid.Generator
	clock       quartz.Clock
	idleTimeout time.Duration
	logger      *log.Logger
}

// SessionsOption configures Sessions
type SessionsOption func(*Sessions)

// WithRulesets sets how rulesets are resolved. Presets are used by default.
func WithRulesets(lookup RulesetLookup) SessionsOption {
	return func(s *Sessions) { s.rulesets = lookup }
}

// WithClock sets the clock used for activity tracking and the reaper.
func WithClock(clock quartz.Clock) SessionsOption {
	return func(s *Sessions) { s.clock = clock }
}

// WithIdleTimeout sets how long an unwatched session stays loaded.
func WithIdleTimeout(d time.Duration) SessionsOption {
	return func(s *Sessions) { s.idleTimeout = d }
}

// WithIDGenerator sets the session id generator.
func WithIDGenerator(g *gameid.Generator) SessionsOption {
	return func(s *Sessions) { s.ids = g }
}

// NewSessions creates a session registry backed by st
func NewSessions(st store.Store, logger *log.Logger, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		sessions:    make(map[string]*Session),
		store:       st,
		rulesets:    presetLookup,
		clock:       quartz.NewReal(),
		idleTimeout: DefaultIdleTimeout,
		logger:      logger.WithPrefix("sessions"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = gameid.NewGenerator(s.clock, nil)
	}
	return s
}

// Create starts a new session and persists its first snapshot.
func (s *Sessions) Create(ctx context.Context, req CreateSessionData) (*Session, error) {
	name := req.Ruleset
	if name == "" {
		name = ruleset.MLeague.Name
	}
	rs, err := s.rulesets(name)
	if err != nil {
		return nil, err
	}

	winds := seat.First(len(req.Names))
	if len(req.StartingWinds) > 0 {
		winds = make([]seat.Wind, len(req.StartingWinds))
		for i, w := range req.StartingWinds {
			if winds[i], err = seat.Parse(w); err != nil {
				return nil, err
			}
		}
	}

	g, err := game.NewGame(rs, req.Names, winds, game.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	id, err := s.ids.New()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	if err := store.SaveGame(ctx, s.store, id, g); err != nil {
		return nil, err
	}

	sess := s.add(id, g)
	s.logger.Info("Session created", "id", id, "ruleset", rs.Name, "players", req.Names)
	return sess, nil
}

func (s *Sessions) add(id string, g *game.Game) *Session {
	sess := &Session{
		id:         id,
		game:       g,
		conns:      make(map[*Connection]bool),
		lastActive: s.clock.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing
	}
	s.sessions[id] = sess
	return sess
}

// Get returns a live session, loading it from the store if it was evicted.
func (s *Sessions) Get(ctx context.Context, id string) (*Session, error) {
	if sess, ok := s.live(id); ok {
		return sess, nil
	}

	g, err := store.LoadGame(ctx, s.store, id, game.WithLogger(s.logger))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Session resumed", "id", id)
	return s.add(id, g), nil
}

// live returns the in-memory session with id without touching the store.
func (s *Sessions) live(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Join attaches c to the session with id and returns it. A session evicted
// between lookup and attach is reloaded, so c never watches a stale copy.
func (s *Sessions) Join(ctx context.Context, id string, c *Connection) (*Session, error) {
	for {
		sess, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess.attach(c, s.clock.Now()) {
			return sess, nil
		}
	}
}

// acquire returns the live session with id, locked.
func (s *Sessions) acquire(ctx context.Context, id string) (*Session, error) {
	for {
		sess, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		if !sess.evicted {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

// Apply runs one command line against the session and persists the result.
// It returns the applied command and the new snapshot.
func (s *Sessions) Apply(ctx context.Context, id, line string) (string, []byte, error) {
	c, ok, err := command.Parse(line)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, errors.New("empty command")
	}

	sess, err := s.acquire(ctx, id)
	if err != nil {
		return "", nil, err
	}
	defer sess.mu.Unlock()
	if err := command.Apply(sess.game, c); err != nil {
		return "", nil, err
	}
	sess.lastActive = s.clock.Now()
	if err := store.SaveGame(ctx, s.store, id, sess.game); err != nil {
		return "", nil, err
	}
	data, err := game.Marshal(sess.game)
	if err != nil {
		return "", nil, err
	}
	s.logger.Debug("Command applied", "id", id, "command", c.String(), "hand", sess.game.CurrentHand().Signature())
	return c.String(), data, nil
}

// List describes every live session, ordered by id.
func (s *Sessions) List() []SessionInfo {
	s.mu.RLock()
	live := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(live))
	for _, sess := range live {
		infos = append(infos, sess.info())
	}
	slices.SortFunc(infos, func(a, b SessionInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	return infos
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Reap evicts unwatched sessions idle for longer than the idle timeout.
// Their snapshots stay in the store. It returns the evicted ids.
func (s *Sessions) Reap() []string {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := len(sess.conns) == 0 && now.Sub(sess.lastActive) > s.idleTimeout
		if idle {
			sess.evicted = true
		}
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	slices.Sort(evicted)
	for _, id := range evicted {
		s.logger.Info("Session evicted", "id", id)
	}
	return evicted
}

// RunReaper calls Reap every interval until ctx is done.
func (s *Sessions) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval, "sessions", "reaper")
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Reap()
		case <-ctx.Done():
			return
		}
	}
}
