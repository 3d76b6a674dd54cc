package command

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/seat"
)

// Resolve maps a seat reference to a player id: a player name first, then
// a wind, which names whoever sits on that wind now.
func Resolve(g *game.Game, ref string) (seat.Wind, error) {
	for _, id := range g.Seats() {
		if strings.EqualFold(g.PlayerName(id), ref) {
			return id, nil
		}
	}
	w, err := seat.Parse(ref)
	if err != nil {
		return 0, fmt.Errorf("no player or wind %q", ref)
	}
	for _, id := range g.Seats() {
		if g.PlayerWind(id) == w {
			return id, nil
		}
	}
	return 0, fmt.Errorf("nobody sits %s", w)
}

func resolveAll(g *game.Game, refs []string) ([]seat.Wind, error) {
	ids := make([]seat.Wind, 0, len(refs))
	for _, ref := range refs {
		id, err := Resolve(g, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolvePao(g *game.Game, ref string) (*seat.Wind, error) {
	if ref == "" {
		return nil, nil
	}
	id, err := Resolve(g, ref)
	if err != nil {
		return nil, err
	}
	return seat.Ptr(id), nil
}

// Outcome builds the hand outcome for a draw, tsumo, ron or chombo command.
func Outcome(g *game.Game, c Command) (game.Outcome, error) {
	switch c.Op {
	case OpDraw:
		ids, err := resolveAll(g, c.Seats)
		if err != nil {
			return nil, err
		}
		return game.Draw{Tenpai: seat.NewSet(ids...)}, nil
	case OpChombo:
		ids, err := resolveAll(g, c.Seats)
		if err != nil {
			return nil, err
		}
		return game.Chombo{Offenders: seat.NewSet(ids...)}, nil
	case OpTsumo:
		w := c.Wins[0]
		winner, err := Resolve(g, w.Winner)
		if err != nil {
			return nil, err
		}
		pao, err := resolvePao(g, w.Pao)
		if err != nil {
			return nil, err
		}
		return game.Tsumo{Winner: winner, Han: w.Han, Fu: w.Fu, Pao: pao}, nil
	case OpRon:
		dealIn, err := Resolve(g, c.DealIn)
		if err != nil {
			return nil, err
		}
		r := game.Ron{DealIn: dealIn}
		for _, w := range c.Wins {
			winner, err := Resolve(g, w.Winner)
			if err != nil {
				return nil, err
			}
			pao, err := resolvePao(g, w.Pao)
			if err != nil {
				return nil, err
			}
			r.Wins = append(r.Wins, game.RonWin{Winner: winner, Han: w.Han, Fu: w.Fu, Pao: pao})
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%s is not a hand result", c.Op)
	}
}

// Apply runs c against g. A result command also writes the hand log entry.
func Apply(g *game.Game, c Command) error {
	switch c.Op {
	case OpStart:
		return g.Start()
	case OpDeal:
		return g.StartCurrentHand()
	case OpRiichi, OpUnRiichi:
		ids, err := resolveAll(g, c.Seats)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if c.Op == OpRiichi {
				err = g.PlayerRiichi(id)
			} else {
				err = g.PlayerUnRiichi(id)
			}
			if err != nil {
				return err
			}
		}
		return nil
	case OpDraw, OpTsumo, OpRon, OpChombo:
		o, err := Outcome(g, c)
		if err != nil {
			return err
		}
		if err := g.FinishCurrentHand(o); err != nil {
			return err
		}
		g.SaveHandLog()
		return nil
	case OpNext:
		return g.SetUpNextHandOrFinishGame()
	case OpFinish:
		return g.Finish()
	case OpReset:
		return g.ResetToPreviousFinishedHand(c.Index)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, c.Op)
	}
}

// ApplyLine parses and applies one line. Comments and blank lines do nothing.
func ApplyLine(g *game.Game, line string) error {
	c, ok, err := Parse(line)
	if err != nil || !ok {
		return err
	}
	return Apply(g, c)
}

// Replay applies every line of r to g, stopping at the first failure. It
// returns the number of commands applied.
func Replay(g *game.Game, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	applied, lineNo := 0, 0
	for scanner.Scan() {
		lineNo++
		c, ok, err := Parse(scanner.Text())
		if err != nil {
			return applied, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !ok {
			continue
		}
		if err := Apply(g, c); err != nil {
			return applied, fmt.Errorf("line %d: %s: %w", lineNo, c, err)
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return applied, fmt.Errorf("read script: %w", err)
	}
	return applied, nil
}
