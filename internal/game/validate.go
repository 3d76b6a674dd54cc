package game

import (
	"github.com/lox/riichibook/internal/points"
	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

// validate checks proposed results against the hand and ruleset and
// returns them in canonical form. The hand is never touched.
func (h *Hand) validate(o Outcome, players *Players, rs ruleset.Ruleset) (Outcome, error) {
	seated := seat.NewSet(players.Seats()...)
	switch o := o.(type) {
	case Draw:
		if !o.Tenpai.SubsetOf(seated) {
			return nil, invalid("tenpai names a seat that is not playing: %s", o.Tenpai)
		}
		for _, w := range h.Riichi.Winds() {
			if !o.Tenpai.Has(w) {
				name := ""
				if p, ok := players.GetPlayer(w); ok {
					name = p.Name
				}
				return nil, invalid("riichi player %s (%s) is not tenpai", name, w)
			}
		}
		return o, nil

	case Tsumo:
		if !players.Has(o.Winner) {
			return nil, invalid("unknown tsumo winner %s", o.Winner)
		}
		han, fu, err := formalizeScore(o.Han, o.Fu, rs)
		if err != nil {
			return nil, err
		}
		key, _ := points.Resolve(han, fu, rs.RoundUpMangan)
		if !points.ValidTsumo(key) {
			return nil, invalid("no tsumo value for %s han %d fu", o.Han, o.Fu)
		}
		if err := checkPao(o.Pao, o.Winner, o.Han, players); err != nil {
			return nil, err
		}
		return Tsumo{Winner: o.Winner, Han: han, Fu: fu, Pao: clonePao(o.Pao)}, nil

	case Ron:
		if len(o.Wins) == 0 {
			return nil, invalid("ron needs at least one winner")
		}
		if rs.HeadBump && len(o.Wins) > 1 {
			return nil, invalid("head bump allows a single ron winner, got %d", len(o.Wins))
		}
		if !players.Has(o.DealIn) {
			return nil, invalid("unknown deal-in seat %s", o.DealIn)
		}
		var seen seat.Set
		wins := make([]RonWin, 0, len(o.Wins))
		for _, w := range o.Wins {
			if !players.Has(w.Winner) {
				return nil, invalid("unknown ron winner %s", w.Winner)
			}
			if w.Winner == o.DealIn {
				return nil, invalid("deal-in seat %s cannot also win", o.DealIn)
			}
			if seen.Has(w.Winner) {
				return nil, invalid("ron winner %s listed twice", w.Winner)
			}
			seen = seen.Add(w.Winner)
			han, fu, err := formalizeScore(w.Han, w.Fu, rs)
			if err != nil {
				return nil, err
			}
			key, _ := points.Resolve(han, fu, rs.RoundUpMangan)
			if !points.ValidRon(key) {
				return nil, invalid("no ron value for %s han %d fu", w.Han, w.Fu)
			}
			if err := checkPao(w.Pao, w.Winner, w.Han, players); err != nil {
				return nil, err
			}
			wins = append(wins, RonWin{Winner: w.Winner, Han: han, Fu: fu, Pao: clonePao(w.Pao)})
		}
		return Ron{DealIn: o.DealIn, Wins: wins}, nil

	case Chombo:
		if o.Offenders.Len() == 0 {
			return nil, invalid("chombo needs at least one offender")
		}
		if !o.Offenders.SubsetOf(seated) {
			return nil, invalid("chombo names a seat that is not playing: %s", o.Offenders)
		}
		return o, nil

	case nil:
		return nil, invalid("missing outcome")
	default:
		return nil, invalid("unknown outcome %T", o)
	}
}

// formalizeScore validates a han/fu pair and strips what does not matter:
// fu is dropped once the han alone decides the value, and a boundary
// 3/60 or 4/30 becomes a mangan when the ruleset rounds up.
func formalizeScore(han points.Han, fu int, rs ruleset.Ruleset) (points.Han, int, error) {
	if !han.Valid() {
		return points.Han{}, 0, invalid("han out of range: %s", han)
	}
	if !han.NeedsFu() {
		return han, 0, nil
	}
	if !points.ValidFu(fu) {
		return points.Han{}, 0, invalid("fu %d is not allowed for %s han", fu, han)
	}
	if rs.RoundUpMangan && ((han.Count == 4 && fu == 30) || (han.Count == 3 && fu == 60)) {
		return points.TierHan(points.Mangan), 0, nil
	}
	return han, fu, nil
}

func checkPao(pao *seat.Wind, winner seat.Wind, han points.Han, players *Players) error {
	if pao == nil {
		return nil
	}
	if !players.Has(*pao) {
		return invalid("unknown pao seat %s", *pao)
	}
	if *pao == winner {
		return invalid("winner %s cannot be their own pao", winner)
	}
	if !han.AllowsPao() {
		return invalid("pao is not allowed for %s", han)
	}
	return nil
}
