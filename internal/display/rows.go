// Package display turns a game log into table rows and renders them for
// the terminal or for an exported text file.
package display

import (
	"fmt"
	"strings"

	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/points"
	"github.com/lox/riichibook/internal/seat"
)

// Row is one log entry, with per-seat columns in starting wind order.
type Row struct {
	Index          int
	Signature      string
	StartingSticks int
	Summary        string
	Points         []int
	Deltas         []int
	Tags           []string
}

// Rows builds one row per log entry. The settlement row's deltas are the
// change from the row before it.
func Rows(entries []game.LogEntry) []Row {
	rows := make([]Row, 0, len(entries))
	for i, e := range entries {
		r := row(i, e)
		if e.Kind == game.LogLeftoverRiichiSticks && i > 0 {
			prev := rows[i-1]
			for j := range r.Points {
				r.Deltas[j] = r.Points[j] - prev.Points[j]
			}
		}
		rows = append(rows, r)
	}
	return rows
}

func row(i int, e game.LogEntry) Row {
	h, players := e.Hand, e.Players
	seats := players.Seats()
	r := Row{
		Index:          i,
		Signature:      h.Signature(),
		StartingSticks: h.StartingRiichiSticks,
		Points:         make([]int, len(seats)),
		Deltas:         make([]int, len(seats)),
		Tags:           make([]string, len(seats)),
	}
	name := func(id seat.Wind) string {
		if p, ok := players.GetPlayer(id); ok {
			return p.Name
		}
		return id.String()
	}

	tags := make(map[seat.Wind]*strings.Builder, len(seats))
	for j, id := range seats {
		p, _ := players.GetPlayer(id)
		r.Points[j] = p.Points
		tags[id] = &strings.Builder{}
		if e.Kind != game.LogLeftoverRiichiSticks && h.Riichi.Has(id) {
			tags[id].WriteByte('R')
		}
	}
	tag := func(id seat.Wind, c byte) {
		if b, ok := tags[id]; ok {
			b.WriteByte(c)
		}
	}

	if e.Kind == game.LogLeftoverRiichiSticks {
		r.Summary = leftoverSummary(h)
	} else if h.Results != nil {
		for j, id := range seats {
			r.Deltas[j] = h.Results.Delta[id]
		}
		switch o := h.Results.Outcome.(type) {
		case game.Draw:
			var tenpai []string
			for _, id := range o.Tenpai.Winds() {
				tag(id, 'T')
				tenpai = append(tenpai, name(id))
			}
			if len(tenpai) == 0 {
				r.Summary = "Draw, all noten"
			} else {
				r.Summary = "Draw, tenpai " + strings.Join(tenpai, ", ")
			}
		case game.Tsumo:
			tag(o.Winner, 'W')
			r.Summary = "Tsumo " + name(o.Winner) + " " + score(o.Han, o.Fu)
			if o.Pao != nil {
				tag(*o.Pao, 'P')
				r.Summary += " pao " + name(*o.Pao)
			}
		case game.Ron:
			tag(o.DealIn, 'D')
			var wins []string
			for _, w := range o.Wins {
				tag(w.Winner, 'W')
				s := name(w.Winner) + " " + score(w.Han, w.Fu)
				if w.Pao != nil {
					tag(*w.Pao, 'P')
					s += " pao " + name(*w.Pao)
				}
				wins = append(wins, s)
			}
			r.Summary = "Ron " + name(o.DealIn) + " -> " + strings.Join(wins, ", ")
		case game.Chombo:
			var offenders []string
			for _, id := range o.Offenders.Winds() {
				tag(id, 'C')
				offenders = append(offenders, name(id))
			}
			r.Summary = "Chombo " + strings.Join(offenders, ", ")
		}
	} else if h.IsAbandoned() {
		r.Summary = "Abandoned"
	}

	for j, id := range seats {
		r.Tags[j] = tags[id].String()
	}
	return r
}

func leftoverSummary(h *game.Hand) string {
	if h.IsAbandoned() {
		return fmt.Sprintf("Game over, hand abandoned, %d sticks left", h.RiichiSticks)
	}
	if h.RiichiSticks > 0 {
		return fmt.Sprintf("Game over, %d sticks abandoned", h.RiichiSticks)
	}
	return "Game over"
}

func score(h points.Han, fu int) string {
	if fu == 0 {
		return strings.ToLower(h.String())
	}
	return fmt.Sprintf("%s/%d", h, fu)
}

// Cell formats a per-seat column: running total, signed delta and tags.
func (r Row) Cell(j int) string {
	parts := []string{fmt.Sprintf("%d", r.Points[j])}
	if r.Deltas[j] != 0 {
		parts = append(parts, fmt.Sprintf("%+d", r.Deltas[j]))
	}
	if r.Tags[j] != "" {
		parts = append(parts, r.Tags[j])
	}
	return strings.Join(parts, " ")
}
