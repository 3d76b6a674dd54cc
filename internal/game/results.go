package game

import (
	"encoding/json"
	"fmt"

	"github.com/lox/riichibook/internal/points"
	"github.com/lox/riichibook/internal/seat"
)

// OutcomeKind names how a hand ended.
type OutcomeKind string

const (
	KindDraw   OutcomeKind = "draw"
	KindTsumo  OutcomeKind = "tsumo"
	KindRon    OutcomeKind = "ron"
	KindChombo OutcomeKind = "chombo"
)

// Outcome is one of Draw, Tsumo, Ron or Chombo.
type Outcome interface {
	Kind() OutcomeKind
	clone() Outcome
}

// Draw is an exhaustive draw. Tenpai lists the seats that were one tile
// from winning.
type Draw struct {
	Tenpai seat.Set
}

// Tsumo is a self draw win.
type Tsumo struct {
	Winner seat.Wind
	Han    points.Han
	Fu     int
	Pao    *seat.Wind
}

// RonWin is one winner of a ron.
type RonWin struct {
	Winner seat.Wind  `json:"winner"`
	Han    points.Han `json:"han"`
	Fu     int        `json:"fu,omitempty"`
	Pao    *seat.Wind `json:"pao,omitempty"`
}

// Ron is a win off a discard, possibly with several winners.
type Ron struct {
	DealIn seat.Wind
	Wins   []RonWin
}

// Chombo is a rule infraction; the hand is replayed.
type Chombo struct {
	Offenders seat.Set
}

func (Draw) Kind() OutcomeKind {
	return KindDraw
}

func (Tsumo) Kind() OutcomeKind {
	return KindTsumo
}

func (Ron) Kind() OutcomeKind {
	return KindRon
}

func (Chombo) Kind() OutcomeKind {
	return KindChombo
}

func (d Draw) clone() Outcome {
	return d
}

func (c Chombo) clone() Outcome {
	return c
}

func (t Tsumo) clone() Outcome {
	t.Pao = clonePao(t.Pao)
	return t
}

func (r Ron) clone() Outcome {
	wins := make([]RonWin, len(r.Wins))
	for i, w := range r.Wins {
		w.Pao = clonePao(w.Pao)
		wins[i] = w
	}
	r.Wins = wins
	return r
}

func clonePao(p *seat.Wind) *seat.Wind {
	if p == nil {
		return nil
	}
	return seat.Ptr(*p)
}

// Winners returns the winning seats of an outcome, in the order given.
func Winners(o Outcome) []seat.Wind {
	switch o := o.(type) {
	case Tsumo:
		return []seat.Wind{o.Winner}
	case Ron:
		winners := make([]seat.Wind, len(o.Wins))
		for i, w := range o.Wins {
			winners[i] = w.Winner
		}
		return winners
	default:
		return nil
	}
}

// PointsDelta is a per-seat change in points, indexed by player id.
// A zero entry means no change.
type PointsDelta [seat.Count]int

// Sum adds up every entry.
func (d PointsDelta) Sum() int {
	total := 0
	for _, v := range d {
		total += v
	}
	return total
}

// MarshalJSON writes the non-zero entries as a map keyed by wind name.
func (d PointsDelta) MarshalJSON() ([]byte, error) {
	m := make(map[seat.Wind]int, seat.Count)
	for _, w := range seat.Order {
		if d[w] != 0 {
			m[w] = d[w]
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the map written by MarshalJSON.
func (d *PointsDelta) UnmarshalJSON(data []byte) error {
	var m map[seat.Wind]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = PointsDelta{}
	for w, v := range m {
		d[w] = v
	}
	return nil
}

// Results is the resolved outcome of a finished hand.
type Results struct {
	Outcome Outcome
	Delta   PointsDelta
}

// Clone returns a deep copy.
func (r *Results) Clone() *Results {
	if r == nil {
		return nil
	}
	return &Results{Outcome: r.Outcome.clone(), Delta: r.Delta}
}

type resultsJSON struct {
	Outcome OutcomeKind `json:"outcome"`
	Tenpai  *seat.Set   `json:"tenpai,omitempty"`
	Winner  *seat.Wind  `json:"winner,omitempty"`
	DealIn  *seat.Wind  `json:"deal_in,omitempty"`
	Han     *points.Han `json:"han,omitempty"`
	Fu      int         `json:"fu,omitempty"`
	Pao     *seat.Wind  `json:"pao,omitempty"`
	Wins    []RonWin    `json:"wins,omitempty"`
	Chombo  *seat.Set   `json:"chombo,omitempty"`
	Delta   PointsDelta `json:"points_delta"`
}

// MarshalJSON flattens the outcome variant next to an "outcome" tag.
func (r *Results) MarshalJSON() ([]byte, error) {
	if r.Outcome == nil {
		return nil, fmt.Errorf("results without outcome")
	}
	out := resultsJSON{Outcome: r.Outcome.Kind(), Delta: r.Delta}
	switch o := r.Outcome.(type) {
	case Draw:
		out.Tenpai = &o.Tenpai
	case Tsumo:
		out.Winner = &o.Winner
		out.Han = &o.Han
		out.Fu = o.Fu
		out.Pao = o.Pao
	case Ron:
		out.DealIn = &o.DealIn
		out.Wins = o.Wins
	case Chombo:
		out.Chombo = &o.Offenders
	default:
		return nil, fmt.Errorf("unknown outcome %T", r.Outcome)
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the variant named by the "outcome" tag.
func (r *Results) UnmarshalJSON(data []byte) error {
	var in resultsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var outcome Outcome
	switch in.Outcome {
	case KindDraw:
		var d Draw
		if in.Tenpai != nil {
			d.Tenpai = *in.Tenpai
		}
		outcome = d
	case KindTsumo:
		if in.Winner == nil || in.Han == nil {
			return fmt.Errorf("tsumo results need winner and han")
		}
		outcome = Tsumo{Winner: *in.Winner, Han: *in.Han, Fu: in.Fu, Pao: in.Pao}
	case KindRon:
		if in.DealIn == nil || len(in.Wins) == 0 {
			return fmt.Errorf("ron results need deal_in and wins")
		}
		outcome = Ron{DealIn: *in.DealIn, Wins: in.Wins}
	case KindChombo:
		var c Chombo
		if in.Chombo != nil {
			c.Offenders = *in.Chombo
		}
		outcome = c
	default:
		return fmt.Errorf("unknown outcome %q", in.Outcome)
	}
	*r = Results{Outcome: outcome, Delta: in.Delta}
	return nil
}
