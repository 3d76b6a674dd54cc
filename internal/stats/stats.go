// Package stats summarizes a game per player and builds the record sent
// to the remote game recorder.
package stats

import (
	"errors"
	"time"

	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/seat"
)

// PlayerStats counts what one player did over the logged hands.
//
// AgariPoints is the sum of what the player gained on their wins, sticks and
// honba included. DealInPoints is the sum of what they paid when dealing in,
// as a positive number.
type PlayerStats struct {
	ID           seat.Wind `json:"-"`
	Name         string    `json:"name"`
	Points       int       `json:"points"`
	Rank         int       `json:"-"`
	Riichi       int       `json:"riichi"`
	Agari        int       `json:"agari"`
	DealIn       int       `json:"deal_in"`
	TenpaiOnDraw int       `json:"tenpai_on_draw"`
	AgariPoints  int       `json:"agari_pt_sum"`
	DealInPoints int       `json:"deal_in_pt_sum"`
}

// Summarize walks the log of g. The result is in starting wind order.
func Summarize(g *game.Game) []PlayerStats {
	out := make([]PlayerStats, 0, g.NumPlayers())
	index := make(map[seat.Wind]int, g.NumPlayers())
	for _, id := range g.Seats() {
		index[id] = len(out)
		out = append(out, PlayerStats{
			ID:     id,
			Name:   g.PlayerName(id),
			Points: g.PlayerPoints(id),
			Rank:   g.PlayerRank(id),
		})
	}

	for _, e := range g.Log() {
		if e.Kind != game.LogRegular || e.Hand.Results == nil {
			continue
		}
		h := e.Hand
		delta := h.Results.Delta
		for _, id := range h.Riichi.Winds() {
			out[index[id]].Riichi++
		}
		switch o := h.Results.Outcome.(type) {
		case game.Draw:
			for _, id := range o.Tenpai.Winds() {
				out[index[id]].TenpaiOnDraw++
			}
		case game.Tsumo:
			s := &out[index[o.Winner]]
			s.Agari++
			s.AgariPoints += delta[o.Winner]
		case game.Ron:
			for _, w := range o.Wins {
				s := &out[index[w.Winner]]
				s.Agari++
				s.AgariPoints += delta[w.Winner]
			}
			s := &out[index[o.DealIn]]
			s.DealIn++
			s.DealInPoints -= delta[o.DealIn]
		}
	}
	return out
}

// AdjustedUma returns each player's uma given their ranks. Players sharing
// a rank split the uma of the positions they cover, so ranks [1,1,3,4] with
// uma [45,5,-15,-35] give [25,25,-15,-35]. uma must have one value per rank.
func AdjustedUma(ranks []int, uma []int) ([]float64, error) {
	if len(ranks) != len(uma) {
		return nil, errors.New("need one uma value per player")
	}
	count := make(map[int]int)
	for _, r := range ranks {
		if r < 1 || r > len(ranks) {
			return nil, errors.New("rank out of range")
		}
		count[r]++
	}
	out := make([]float64, len(ranks))
	for i, r := range ranks {
		n := count[r]
		if r-1+n > len(uma) {
			return nil, errors.New("ranks do not describe a standing")
		}
		sum := 0
		for _, u := range uma[r-1 : r-1+n] {
			sum += u
		}
		out[i] = float64(sum) / float64(n)
	}
	return out, nil
}

// DefaultUma is the per-rank bonus used when none is configured.
var DefaultUma = map[int][]int{
	3: {30, 0, -30},
	4: {45, 5, -15, -35},
}

// Scores returns (points - starting points) / 1000 plus adjusted uma for
// each player of a finished game.
func Scores(g *game.Game, uma []int) ([]float64, error) {
	if !g.IsFinished() {
		return nil, errors.New("game is not finished")
	}
	if uma == nil {
		uma = DefaultUma[g.NumPlayers()]
	}
	summary := Summarize(g)
	ranks := make([]int, len(summary))
	for i, s := range summary {
		ranks[i] = s.Rank
	}
	adjusted, err := AdjustedUma(ranks, uma)
	if err != nil {
		return nil, err
	}
	start := g.Ruleset().StartingPoints
	scores := make([]float64, len(summary))
	for i, s := range summary {
		scores[i] = float64(s.Points-start)/1000 + adjusted[i]
	}
	return scores, nil
}

// GameRecord is the game part of a record_game request. Seats are keyed
// by starting wind; north is omitted at a three player table.
type GameRecord struct {
	GameDate      int          `json:"game_date"`
	GameHandCount int          `json:"game_hand_count"`
	East          *PlayerStats `json:"east"`
	South         *PlayerStats `json:"south"`
	West          *PlayerStats `json:"west"`
	North         *PlayerStats `json:"north,omitempty"`
}

// NewRecord builds the record of a finished game played on day. The date
// is encoded as YYYYMMDD.
func NewRecord(g *game.Game, day time.Time) (GameRecord, error) {
	if !g.IsFinished() {
		return GameRecord{}, errors.New("only finished games can be recorded")
	}
	rec := GameRecord{
		GameDate:      day.Year()*10000 + int(day.Month())*100 + day.Day(),
		GameHandCount: g.HandsPlayed(),
	}
	slots := [seat.Count]**PlayerStats{&rec.East, &rec.South, &rec.West, &rec.North}
	for _, s := range Summarize(g) {
		*slots[s.ID] = &s
	}
	return rec, nil
}
