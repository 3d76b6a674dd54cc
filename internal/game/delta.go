package game

import (
	"github.com/lox/riichibook/internal/points"
	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

// resolveDelta computes the per-seat change for a formalized outcome. The
// result sums to the value of the riichi sticks it claims.
func (h *Hand) resolveDelta(o Outcome, players *Players, rs ruleset.Ruleset) (PointsDelta, error) {
	switch o := o.(type) {
	case Draw:
		return drawDelta(o, players, rs), nil
	case Tsumo:
		return h.tsumoDelta(o, players, rs)
	case Ron:
		return h.ronDelta(o, players, rs)
	default:
		return PointsDelta{}, nil
	}
}

func drawDelta(o Draw, players *Players, rs ruleset.Ruleset) PointsDelta {
	var delta PointsDelta
	n := players.NumPlayers()
	tenpai := o.Tenpai.Len()
	if tenpai == 0 || tenpai == n {
		return delta
	}
	gain := rs.DrawTenpaiPoints / tenpai
	loss := rs.DrawTenpaiPoints / (n - tenpai)
	for _, id := range players.Seats() {
		if o.Tenpai.Has(id) {
			delta[id] = gain
		} else {
			delta[id] = -loss
		}
	}
	return delta
}

func (h *Hand) tsumoDelta(o Tsumo, players *Players, rs ruleset.Ruleset) (PointsDelta, error) {
	var delta PointsDelta
	key, ok := points.Resolve(o.Han, o.Fu, rs.RoundUpMangan)
	if !ok {
		return delta, invariant("tsumo %s/%d did not resolve", o.Han, o.Fu)
	}
	payers := players.NumPlayers() - 1
	honba := h.Honba * rs.HonbaPoints / payers

	dealerWins := players.IsDealer(o.Winner)
	var all, nonDealer, dealer int
	if dealerWins {
		all, ok = points.TsumoDealer(key)
	} else {
		nonDealer, dealer, ok = points.TsumoNonDealer(key)
	}
	if !ok {
		return delta, invariant("tsumo %s/%d has no table entry", o.Han, o.Fu)
	}

	total := 0
	for _, id := range players.Seats() {
		if id == o.Winner {
			continue
		}
		share := nonDealer
		switch {
		case dealerWins:
			share = all
		case players.IsDealer(id):
			share = dealer
		}
		share += honba
		total += share
		if o.Pao == nil {
			delta[id] = -share
		}
	}
	if o.Pao != nil {
		delta[*o.Pao] = -total
	}
	delta[o.Winner] = total + h.RiichiSticks*rs.RiichiCost
	return delta, nil
}

func (h *Hand) ronDelta(o Ron, players *Players, rs ruleset.Ruleset) (PointsDelta, error) {
	var delta PointsDelta
	n := players.NumPlayers()
	for _, w := range o.Wins {
		key, ok := points.Resolve(w.Han, w.Fu, rs.RoundUpMangan)
		if !ok {
			return delta, invariant("ron %s/%d did not resolve", w.Han, w.Fu)
		}
		base, ok := points.Ron(key, players.IsDealer(w.Winner))
		if !ok {
			return delta, invariant("ron %s/%d has no table entry", w.Han, w.Fu)
		}
		delta[w.Winner] += base
		if w.Pao != nil {
			half := base / 2
			delta[*w.Pao] -= half
			delta[o.DealIn] -= base - half
		} else {
			delta[o.DealIn] -= base
		}
	}

	// Honba and the sticks go once, to the first winner after the deal-in
	// seat in turn order.
	closest := -1
	for id, i := o.DealIn.NextAmong(n), 0; i < n; id, i = id.NextAmong(n), i+1 {
		for j, w := range o.Wins {
			if w.Winner == id {
				closest = j
				break
			}
		}
		if closest >= 0 {
			break
		}
	}
	if closest < 0 {
		return delta, invariant("no ron winner found walking from %s", o.DealIn)
	}
	win := o.Wins[closest]
	honba := h.Honba * rs.HonbaPoints
	payer := o.DealIn
	if win.Pao != nil {
		payer = *win.Pao
	}
	delta[win.Winner] += honba + h.RiichiSticks*rs.RiichiCost
	delta[payer] -= honba
	return delta, nil
}

// dealerAmong reports whether the current dealer is one of ids.
func dealerAmong(players *Players, ids []seat.Wind) bool {
	for _, id := range ids {
		if players.IsDealer(id) {
			return true
		}
	}
	return false
}
