// Package ruleset holds the immutable game parameters shared by every hand.
package ruleset

import (
	"fmt"
	"strings"

	"github.com/lox/riichibook/internal/seat"
)

// LeftoverPolicy decides what happens to riichi sticks still on the table
// when the game ends.
type LeftoverPolicy int

const (
	// Abandoned sticks leave the game; they are only kept for audit.
	Abandoned LeftoverPolicy = iota
	// SplitAmongTopPlayers gives the sticks to the rank 1 players.
	SplitAmongTopPlayers
)

func (p LeftoverPolicy) String() string {
	switch p {
	case Abandoned:
		return "abandon"
	case SplitAmongTopPlayers:
		return "split"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseLeftoverPolicy accepts "abandon" or "split".
func ParseLeftoverPolicy(s string) (LeftoverPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abandon", "abandoned":
		return Abandoned, nil
	case "split", "split_among_top_players":
		return SplitAmongTopPlayers, nil
	default:
		return 0, fmt.Errorf("unknown left-over riichi stick policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p LeftoverPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *LeftoverPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseLeftoverPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Ruleset is passed by value so a game can never mutate the caller's copy.
type Ruleset struct {
	Name                       string         `json:"name"`
	NumPlayers                 int            `json:"num_players"`
	StartingPoints             int            `json:"starting_points"`
	HonbaPoints                int            `json:"honba_points"`
	RiichiCost                 int            `json:"riichi_cost"`
	RoundUpMangan              bool           `json:"round_up_mangan"`
	HeadBump                   bool           `json:"head_bump"`
	DrawTenpaiPoints           int            `json:"draw_tenpai_points"`
	LastRoundWind              seat.Wind      `json:"last_round_wind"`
	DealerTenpaiRenchan        bool           `json:"dealer_tenpai_renchan"`
	AllLastDealerWinRenchan    bool           `json:"all_last_dealer_win_renchan"`
	AllLastDealerTenpaiRenchan bool           `json:"all_last_dealer_tenpai_renchan"`
	LeftoverRiichiSticks       LeftoverPolicy `json:"left_over_riichi_sticks"`
}

// MLeague is the professional league ruleset.
var MLeague = Ruleset{
	Name:                       "mleague",
	NumPlayers:                 4,
	StartingPoints:             25000,
	HonbaPoints:                300,
	RiichiCost:                 1000,
	RoundUpMangan:              true,
	HeadBump:                   true,
	DrawTenpaiPoints:           3000,
	LastRoundWind:              seat.South,
	DealerTenpaiRenchan:        true,
	AllLastDealerWinRenchan:    true,
	AllLastDealerTenpaiRenchan: true,
	LeftoverRiichiSticks:       SplitAmongTopPlayers,
}

// Tenhou follows the online ranked lobby: double ron, no round up, sticks
// left on the table are lost.
var Tenhou = Ruleset{
	Name:                       "tenhou",
	NumPlayers:                 4,
	StartingPoints:             25000,
	HonbaPoints:                300,
	RiichiCost:                 1000,
	RoundUpMangan:              false,
	HeadBump:                   false,
	DrawTenpaiPoints:           3000,
	LastRoundWind:              seat.South,
	DealerTenpaiRenchan:        true,
	AllLastDealerWinRenchan:    true,
	AllLastDealerTenpaiRenchan: true,
	LeftoverRiichiSticks:       Abandoned,
}

// Sanma is the three player variant.
var Sanma = Ruleset{
	Name:                       "sanma",
	NumPlayers:                 3,
	StartingPoints:             35000,
	HonbaPoints:                200,
	RiichiCost:                 1000,
	RoundUpMangan:              true,
	HeadBump:                   true,
	DrawTenpaiPoints:           2000,
	LastRoundWind:              seat.South,
	DealerTenpaiRenchan:        true,
	AllLastDealerWinRenchan:    true,
	AllLastDealerTenpaiRenchan: true,
	LeftoverRiichiSticks:       SplitAmongTopPlayers,
}

var presets = map[string]Ruleset{
	MLeague.Name: MLeague,
	Tenhou.Name:  Tenhou,
	Sanma.Name:   Sanma,
}

// Preset looks up a built-in ruleset by name.
func Preset(name string) (Ruleset, bool) {
	rs, ok := presets[strings.ToLower(name)]
	return rs, ok
}

// PresetNames lists the built-in rulesets.
func PresetNames() []string {
	return []string{MLeague.Name, Tenhou.Name, Sanma.Name}
}

// Validate checks that every split the scoring performs comes out integral,
// which keeps each hand exactly zero-sum.
func (r Ruleset) Validate() error {
	if r.NumPlayers != 3 && r.NumPlayers != 4 {
		return fmt.Errorf("num_players must be 3 or 4, got %d", r.NumPlayers)
	}
	if r.StartingPoints <= 0 {
		return fmt.Errorf("starting_points must be positive, got %d", r.StartingPoints)
	}
	if r.RiichiCost <= 0 {
		return fmt.Errorf("riichi_cost must be positive, got %d", r.RiichiCost)
	}
	if r.HonbaPoints < 0 {
		return fmt.Errorf("honba_points must not be negative, got %d", r.HonbaPoints)
	}
	if r.HonbaPoints%(r.NumPlayers-1) != 0 {
		return fmt.Errorf("honba_points %d must split evenly over %d payers", r.HonbaPoints, r.NumPlayers-1)
	}
	if r.DrawTenpaiPoints < 0 {
		return fmt.Errorf("draw_tenpai_points must not be negative, got %d", r.DrawTenpaiPoints)
	}
	for k := 1; k < r.NumPlayers; k++ {
		if r.DrawTenpaiPoints%k != 0 {
			return fmt.Errorf("draw_tenpai_points %d must split evenly over %d players", r.DrawTenpaiPoints, k)
		}
	}
	if !r.LastRoundWind.Valid() {
		return fmt.Errorf("invalid last_round_wind %d", r.LastRoundWind)
	}
	if r.LeftoverRiichiSticks != Abandoned && r.LeftoverRiichiSticks != SplitAmongTopPlayers {
		return fmt.Errorf("invalid left_over_riichi_sticks %d", r.LeftoverRiichiSticks)
	}
	return nil
}

// HandsPerRound is the number of dealer turns in one round wind.
func (r Ruleset) HandsPerRound() int {
	return r.NumPlayers
}

// TotalPoints is the sum every game must conserve.
func (r Ruleset) TotalPoints() int {
	return r.StartingPoints * r.NumPlayers
}
