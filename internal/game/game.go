package game

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

// State is the lifecycle of a session.
type State int

const (
	NotStarted State = iota
	OnGoing
	Finished
)

var stateNames = [...]string{"not_started", "on_going", "finished"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown game state %q", text)
}

var discardLogger = log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})

// Option configures a Game on creation or decoding.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger used for rejected transitions and results.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: discardLogger}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Game runs a session from the first hand to the final settlement.
type Game struct {
	state                 State
	ruleset               ruleset.Ruleset
	players               *Players
	hand                  *Hand
	log                   []LogEntry
	abandonedRiichiSticks int
	uploadID              string

	logger *log.Logger
}

// NewGame seats the players. startingWinds[i] is the wind player names[i]
// starts on; it must cover each seat exactly once.
func NewGame(rs ruleset.Ruleset, names []string, startingWinds []seat.Wind, opts ...Option) (*Game, error) {
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ruleset: %w", err)
	}
	n := rs.NumPlayers
	if len(names) != n {
		return nil, fmt.Errorf("need %d player names, got %d", n, len(names))
	}
	if len(startingWinds) != n {
		return nil, fmt.Errorf("need %d starting winds, got %d", n, len(startingWinds))
	}
	ordered := make([]string, n)
	var used seat.Set
	for i, w := range startingWinds {
		if !w.Valid() || int(w) >= n {
			return nil, fmt.Errorf("starting wind %s is not used with %d players", w, n)
		}
		if used.Has(w) {
			return nil, fmt.Errorf("starting wind %s assigned twice", w)
		}
		used = used.Add(w)
		ordered[w] = names[i]
	}

	players, err := NewPlayers(rs, ordered)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Game{
		state:   NotStarted,
		ruleset: rs,
		players: players,
		hand:    NewHand(seat.East, 1, 0, 0),
		logger:  o.logger,
	}, nil
}

func (g *Game) reject(err error) error {
	switch {
	case errors.Is(err, ErrIllegalTransition):
		g.logger.Warn("Rejected", "error", err, "state", g.state, "hand", g.hand.Signature())
	case errors.Is(err, ErrInvariant):
		g.logger.Error("Invariant violated", "error", err, "hand", g.hand.Signature())
	}
	return err
}

func (g *Game) requireOnGoing(op string) error {
	if g.state != OnGoing {
		return g.reject(illegal("%s while the game is %s", op, g.state))
	}
	return nil
}

// Start begins a game that has not started.
func (g *Game) Start() error {
	if g.state != NotStarted {
		return g.reject(illegal("start while the game is %s", g.state))
	}
	g.state = OnGoing
	g.logger.Info("Game started", "ruleset", g.ruleset.Name)
	return nil
}

// StartCurrentHand puts the current hand into play.
func (g *Game) StartCurrentHand() error {
	if err := g.requireOnGoing("start hand"); err != nil {
		return err
	}
	if err := g.hand.Start(); err != nil {
		return g.reject(err)
	}
	return nil
}

// PlayerRiichi declares riichi for the player with the given id.
func (g *Game) PlayerRiichi(id seat.Wind) error {
	if err := g.requireOnGoing("riichi"); err != nil {
		return err
	}
	if err := g.hand.PlayerRiichi(id, g.players, g.ruleset); err != nil {
		return g.reject(err)
	}
	return nil
}

// PlayerUnRiichi withdraws a riichi declaration.
func (g *Game) PlayerUnRiichi(id seat.Wind) error {
	if err := g.requireOnGoing("un-riichi"); err != nil {
		return err
	}
	if err := g.hand.PlayerUnRiichi(id, g.players, g.ruleset); err != nil {
		return g.reject(err)
	}
	return nil
}

// FinishCurrentHand records the outcome of the hand in play.
func (g *Game) FinishCurrentHand(o Outcome) error {
	if err := g.requireOnGoing("finish hand"); err != nil {
		return err
	}
	if err := g.hand.Finish(o, g.players, g.ruleset); err != nil {
		return g.reject(err)
	}
	g.logger.Debug("Hand finished",
		"hand", g.hand.Signature(),
		"outcome", g.hand.Results.Outcome.Kind(),
		"delta", g.hand.Results.Delta[:g.players.NumPlayers()])
	return g.SanityCheckTotalPoints()
}

// SetUpNextHandOrFinishGame moves on from a finished hand, finishing the
// game when no hand follows.
func (g *Game) SetUpNextHandOrFinishGame() error {
	if err := g.requireOnGoing("next hand"); err != nil {
		return err
	}
	next, rotate, err := g.hand.SetUpNextHand(g.players, g.ruleset)
	if err != nil {
		return g.reject(err)
	}
	if next == nil {
		return g.Finish()
	}
	g.hand = next
	if rotate {
		g.players.ShiftSeats()
	}
	return nil
}

// Finish ends the game: a hand still in play is abandoned, ranks are fixed
// and leftover riichi sticks are settled per the ruleset.
func (g *Game) Finish() error {
	if err := g.requireOnGoing("finish"); err != nil {
		return err
	}
	if g.hand.IsOnGoing() {
		if err := g.hand.Abandon(g.players, g.ruleset); err != nil {
			return g.reject(err)
		}
	}
	g.players.ComputeAndStorePlayersRank()
	g.settleLeftoverRiichiSticks()
	g.state = Finished
	g.SaveLogForLeftOverRiichiSticks()
	g.logger.Info("Game finished", "hands", g.HandsPlayed())
	return g.SanityCheckTotalPoints()
}

func (g *Game) settleLeftoverRiichiSticks() {
	sticks := g.hand.RiichiSticks
	if sticks == 0 {
		return
	}
	if g.ruleset.LeftoverRiichiSticks == ruleset.Abandoned {
		g.abandonedRiichiSticks = sticks
		return
	}
	top := g.players.TopPlayers()
	shares := splitShares(sticks*g.ruleset.RiichiCost, len(top))
	var delta PointsDelta
	for i, id := range top {
		delta[id] = shares[i]
	}
	g.players.ApplyPointsDelta(delta)
	g.hand.RiichiSticks = 0
}

// splitShares divides value among n leaders in starting wind order. Three
// leaders share evenly only when the value divides by three; otherwise the
// first gets 40% and the others 30%. Any remainder goes to the first.
func splitShares(value, n int) []int {
	shares := make([]int, n)
	if n == 0 {
		return shares
	}
	if n == 3 && value%3 != 0 {
		shares[0] = value * 4 / 10
		shares[1] = value * 3 / 10
		shares[2] = value * 3 / 10
	} else {
		for i := range shares {
			shares[i] = value / n
		}
	}
	given := 0
	for _, s := range shares {
		given += s
	}
	shares[0] += value - given
	return shares
}

// SanityCheckTotalPoints reports an ErrInvariant when the points on the
// table plus the escrowed sticks differ from what the game started with.
func (g *Game) SanityCheckTotalPoints() error {
	want := g.ruleset.TotalPoints()
	got := g.players.TotalPoints() + g.hand.RiichiSticks*g.ruleset.RiichiCost
	if got != want {
		return g.reject(invariant("total points %d, want %d", got, want))
	}
	return nil
}

// IsAllLast reports whether the current hand is the last of the game.
func (g *Game) IsAllLast() bool {
	return g.hand.IsAllLast(g.ruleset)
}

func (g *Game) State() State {
	return g.state
}

func (g *Game) IsNotStarted() bool {
	return g.state == NotStarted
}

func (g *Game) IsOnGoing() bool {
	return g.state == OnGoing
}

func (g *Game) IsFinished() bool {
	return g.state == Finished
}

func (g *Game) Ruleset() ruleset.Ruleset {
	return g.ruleset
}

func (g *Game) NumPlayers() int {
	return g.players.NumPlayers()
}

func (g *Game) Seats() []seat.Wind {
	return g.players.Seats()
}

func (g *Game) AbandonedRiichiSticks() int {
	return g.abandonedRiichiSticks
}

// CurrentHand returns a copy of the hand in play.
func (g *Game) CurrentHand() *Hand {
	return g.hand.Clone()
}

// Players returns a copy of the seated players.
func (g *Game) Players() *Players {
	return g.players.Clone()
}

// PlayerName returns the name of the player with the given id.
func (g *Game) PlayerName(id seat.Wind) string {
	if p, ok := g.players.GetPlayer(id); ok {
		return p.Name
	}
	return ""
}

// PlayerWind returns the current wind of the player with the given id.
func (g *Game) PlayerWind(id seat.Wind) seat.Wind {
	if p, ok := g.players.GetPlayer(id); ok {
		return p.CurrentWind
	}
	return id
}

// PlayerPoints returns the points of the player with the given id.
func (g *Game) PlayerPoints(id seat.Wind) int {
	if p, ok := g.players.GetPlayer(id); ok {
		return p.Points
	}
	return 0
}

// PlayerRank returns the final rank, 0 before the game is finished.
func (g *Game) PlayerRank(id seat.Wind) int {
	return g.players.Rank(id)
}

// LastPointsDelta returns the delta of the most recently finished hand.
func (g *Game) LastPointsDelta() (PointsDelta, bool) {
	if g.hand.IsFinished() && g.hand.Results != nil {
		return g.hand.Results.Delta, true
	}
	for i := len(g.log) - 1; i >= 0; i-- {
		if r := g.log[i].Hand.Results; r != nil {
			return r.Delta, true
		}
	}
	return PointsDelta{}, false
}

// SetUploadID tags a finished game with the id a remote service gave it.
func (g *Game) SetUploadID(id string) error {
	if g.state != Finished {
		return g.reject(illegal("upload id on a game that is %s", g.state))
	}
	if id == "" {
		return errors.New("empty upload id")
	}
	g.uploadID = id
	return nil
}

func (g *Game) UploadID() string { return g.uploadID }
func (g *Game) IsUploaded() bool { return g.uploadID != "" }
