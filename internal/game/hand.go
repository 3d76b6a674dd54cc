package game

import (
	"fmt"

	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

// HandState is the lifecycle of one hand.
//
//	NotStarted -> OnGoing -> Finished
//	                      -> Abandoned
type HandState int

const (
	HandNotStarted HandState = iota
	HandOnGoing
	HandFinished
	HandAbandoned
)

var handStateNames = [...]string{"not_started", "on_going", "finished", "abandoned"}

func (s HandState) String() string {
	if s < 0 || int(s) >= len(handStateNames) {
		return fmt.Sprintf("hand_state(%d)", int(s))
	}
	return handStateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s HandState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *HandState) UnmarshalText(text []byte) error {
	for i, name := range handStateNames {
		if name == string(text) {
			*s = HandState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown hand state %q", text)
}

// Hand is a single round of play.
type Hand struct {
	RoundWind            seat.Wind `json:"round_wind"`
	Number               int       `json:"hand"`
	Honba                int       `json:"honba"`
	RiichiSticks         int       `json:"riichi_sticks"`
	StartingRiichiSticks int       `json:"starting_riichi_sticks"`
	Riichi               seat.Set  `json:"riichi"`
	State                HandState `json:"state"`
	HasNextHand          bool      `json:"has_next_hand"`
	Results              *Results  `json:"results,omitempty"`
}

// NewHand returns a hand that has not started yet. sticks are the riichi
// sticks carried over from earlier hands.
func NewHand(roundWind seat.Wind, number, honba, sticks int) *Hand {
	return &Hand{
		RoundWind:            roundWind,
		Number:               number,
		Honba:                honba,
		RiichiSticks:         sticks,
		StartingRiichiSticks: sticks,
		HasNextHand:          true,
	}
}

// Clone returns a deep copy.
func (h *Hand) Clone() *Hand {
	c := *h
	c.Results = h.Results.Clone()
	return &c
}

// Signature is the short label for the hand, e.g. "E2-1".
func (h *Hand) Signature() string {
	return fmt.Sprintf("%s%d-%d", h.RoundWind.Short(), h.Number, h.Honba)
}

func (h *Hand) IsNotStarted() bool {
	return h.State == HandNotStarted
}

func (h *Hand) IsOnGoing() bool {
	return h.State == HandOnGoing
}

func (h *Hand) IsFinished() bool {
	return h.State == HandFinished
}

func (h *Hand) IsAbandoned() bool {
	return h.State == HandAbandoned
}

// Start moves a fresh hand into play.
func (h *Hand) Start() error {
	if h.State != HandNotStarted {
		return illegal("cannot start a hand that is %s", h.State)
	}
	h.State = HandOnGoing
	return nil
}

// PlayerRiichi records a riichi declaration and takes the deposit. It does
// nothing if the seat already declared.
func (h *Hand) PlayerRiichi(id seat.Wind, players *Players, rs ruleset.Ruleset) error {
	player, err := h.riichiTarget(id, players)
	if err != nil {
		return err
	}
	if h.Riichi.Has(id) {
		return nil
	}
	h.Riichi = h.Riichi.Add(id)
	h.RiichiSticks++
	player.ApplyPointsDelta(-rs.RiichiCost)
	return nil
}

// PlayerUnRiichi takes back a riichi declaration and refunds the deposit.
// It does nothing if the seat has not declared.
func (h *Hand) PlayerUnRiichi(id seat.Wind, players *Players, rs ruleset.Ruleset) error {
	player, err := h.riichiTarget(id, players)
	if err != nil {
		return err
	}
	if !h.Riichi.Has(id) {
		return nil
	}
	h.Riichi = h.Riichi.Remove(id)
	h.RiichiSticks--
	player.ApplyPointsDelta(rs.RiichiCost)
	return nil
}

func (h *Hand) riichiTarget(id seat.Wind, players *Players) (*Player, error) {
	if h.State != HandOnGoing {
		return nil, illegal("riichi on a hand that is %s", h.State)
	}
	player, ok := players.GetPlayer(id)
	if !ok {
		return nil, fmt.Errorf("unknown seat %s", id)
	}
	return player, nil
}

func (h *Hand) unRiichiAll(players *Players, rs ruleset.Ruleset) {
	for _, id := range h.Riichi.Winds() {
		if player, ok := players.GetPlayer(id); ok {
			player.ApplyPointsDelta(rs.RiichiCost)
		}
		h.RiichiSticks--
	}
	h.Riichi = 0
}

// Finish validates and applies the outcome. On a *ValidationError the hand
// and the players are unchanged.
func (h *Hand) Finish(o Outcome, players *Players, rs ruleset.Ruleset) error {
	if h.State != HandOnGoing {
		return illegal("cannot finish a hand that is %s", h.State)
	}
	formal, err := h.validate(o, players, rs)
	if err != nil {
		return err
	}

	if _, ok := formal.(Chombo); ok {
		h.unRiichiAll(players, rs)
		h.Results = &Results{Outcome: formal}
		h.State = HandFinished
		return nil
	}

	delta, err := h.resolveDelta(formal, players, rs)
	if err != nil {
		return err
	}
	cleared := 0
	if formal.Kind() != KindDraw {
		cleared = h.RiichiSticks
	}
	if sum := delta.Sum(); sum != cleared*rs.RiichiCost {
		return invariant("%s delta sums to %d, want %d", formal.Kind(), sum, cleared*rs.RiichiCost)
	}

	players.ApplyPointsDelta(delta)
	h.RiichiSticks -= cleared
	h.Results = &Results{Outcome: formal, Delta: delta}
	h.State = HandFinished
	return nil
}

// Abandon ends a hand in play without a result, refunding every riichi
// declared during it. Sticks carried in from earlier hands stay put.
func (h *Hand) Abandon(players *Players, rs ruleset.Ruleset) error {
	if h.State != HandOnGoing {
		return illegal("cannot abandon a hand that is %s", h.State)
	}
	h.unRiichiAll(players, rs)
	h.Results = nil
	h.State = HandAbandoned
	return nil
}

// IsAllLast reports whether this is the final hand of the final round,
// whatever the honba.
func (h *Hand) IsAllLast(rs ruleset.Ruleset) bool {
	return h.RoundWind == rs.LastRoundWind && h.Number == rs.HandsPerRound()
}

// SetUpNextHand works out the following hand. rotate reports whether the
// players must shift seats before it. A nil hand with a nil error means
// the game is over; HasNextHand is cleared in that case.
func (h *Hand) SetUpNextHand(players *Players, rs ruleset.Ruleset) (next *Hand, rotate bool, err error) {
	if h.State != HandFinished {
		return nil, false, illegal("cannot set up the next hand while this one is %s", h.State)
	}
	if !h.HasNextHand {
		return nil, false, illegal("no hands remain")
	}
	if h.Results == nil {
		return nil, false, invariant("finished hand has no results")
	}
	if h.Results.Outcome.Kind() == KindChombo {
		return NewHand(h.RoundWind, h.Number, h.Honba, h.RiichiSticks), false, nil
	}

	dealer, _, err := players.FindDealer()
	if err != nil {
		return nil, false, err
	}
	allLast := h.IsAllLast(rs)
	renchan, honbaUp := false, false
	switch o := h.Results.Outcome.(type) {
	case Draw:
		honbaUp = true
		if o.Tenpai.Has(dealer) {
			renchan = (!allLast && rs.DealerTenpaiRenchan) || (allLast && rs.AllLastDealerTenpaiRenchan)
		}
	default:
		if dealerAmong(players, Winners(o)) {
			honbaUp = true
			renchan = !allLast || rs.AllLastDealerWinRenchan
		}
	}

	if allLast && !renchan {
		h.HasNextHand = false
		return nil, false, nil
	}

	honba := 0
	if honbaUp {
		honba = h.Honba + 1
	}
	round, number := h.RoundWind, h.Number
	if !renchan {
		if number == rs.HandsPerRound() {
			round, number = round.Next(), 1
		} else {
			number++
		}
	}
	return NewHand(round, number, honba, h.RiichiSticks), !renchan, nil
}
