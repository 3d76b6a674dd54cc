// Package command parses the one-line table commands used by the recorder,
// the replay tool and the session host, and applies them to a game.
//
// Seats are named by a player's name or by the wind they currently sit on:
//
//	start
//	deal
//	riichi east [south ...]
//	unriichi east
//	draw [tenpai seats ...]
//	tsumo <winner> <han> [fu] [pao <seat>]
//	ron <deal-in> <winner> <han> [fu] [pao <seat>] [<winner> <han> [fu] [pao <seat>] ...]
//	chombo <seat> [seat ...]
//	next
//	finish
//	reset <log index>
//
// han is a number or a tier name such as mangan or double_yakuman.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/riichibook/internal/points"
)

// ErrUnknownCommand is returned for a line whose first word is not a command.
var ErrUnknownCommand = errors.New("unknown command")

// Op is a command verb.
type Op int

const (
	OpStart Op = iota
	OpDeal
	OpRiichi
	OpUnRiichi
	OpDraw
	OpTsumo
	OpRon
	OpChombo
	OpNext
	OpFinish
	OpReset
)

var opNames = [...]string{"start", "deal", "riichi", "unriichi", "draw", "tsumo", "ron", "chombo", "next", "finish", "reset"}

func lookupOp(word string) (Op, bool) {
	for i, name := range opNames {
		if strings.EqualFold(name, word) {
			return Op(i), true
		}
	}
	return 0, false
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("op(%d)", int(o))
	}
	return opNames[o]
}

// Win is one winner of a tsumo or ron, seats still unresolved.
type Win struct {
	Winner string
	Han    points.Han
	Fu     int
	Pao    string
}

// Command is a parsed line.
type Command struct {
	Op     Op
	Seats  []string
	DealIn string
	Wins   []Win
	Index  int
}

// Parse reads one command line. Blank lines and lines starting with '#'
// are not commands; Parse returns ok false for them.
func Parse(line string) (cmd Command, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return Command{}, false, nil
	}
	op, known := lookupOp(fields[0])
	if !known {
		return Command{}, false, fmt.Errorf("%w %q", ErrUnknownCommand, fields[0])
	}
	args := fields[1:]
	cmd = Command{Op: op}

	switch op {
	case OpStart, OpDeal, OpNext, OpFinish:
		if len(args) != 0 {
			return Command{}, false, fmt.Errorf("%s takes no arguments", op)
		}
	case OpRiichi, OpUnRiichi, OpChombo:
		if len(args) == 0 {
			return Command{}, false, fmt.Errorf("%s needs at least one seat", op)
		}
		cmd.Seats = args
	case OpDraw:
		if len(args) > 0 {
			cmd.Seats = args
		}
	case OpReset:
		if len(args) != 1 {
			return Command{}, false, errors.New("reset needs a log index")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, false, fmt.Errorf("reset: bad index %q", args[0])
		}
		cmd.Index = n
	case OpTsumo:
		wins, err := parseWins(args)
		if err != nil {
			return Command{}, false, fmt.Errorf("tsumo: %w", err)
		}
		if len(wins) != 1 {
			return Command{}, false, errors.New("tsumo has exactly one winner")
		}
		cmd.Wins = wins
	case OpRon:
		if len(args) == 0 {
			return Command{}, false, errors.New("ron needs the deal-in seat")
		}
		cmd.DealIn = args[0]
		wins, err := parseWins(args[1:])
		if err != nil {
			return Command{}, false, fmt.Errorf("ron: %w", err)
		}
		cmd.Wins = wins
	}
	return cmd, true, nil
}

// parseWins reads repeated groups of winner, han, optional fu and optional
// "pao <seat>".
func parseWins(args []string) ([]Win, error) {
	var wins []Win
	for i := 0; i < len(args); {
		if i+1 >= len(args) {
			return nil, fmt.Errorf("winner %s has no han", args[i])
		}
		han, err := points.ParseHan(args[i+1])
		if err != nil {
			return nil, err
		}
		w := Win{Winner: args[i], Han: han}
		i += 2
		if i < len(args) {
			if fu, err := strconv.Atoi(args[i]); err == nil {
				w.Fu = fu
				i++
			}
		}
		if i < len(args) && strings.EqualFold(args[i], "pao") {
			if i+1 >= len(args) {
				return nil, errors.New("pao needs a seat")
			}
			w.Pao = args[i+1]
			i += 2
		}
		wins = append(wins, w)
	}
	if len(wins) == 0 {
		return nil, errors.New("no winner given")
	}
	return wins, nil
}

// String renders the command back into its canonical line.
func (c Command) String() string {
	parts := []string{c.Op.String()}
	switch c.Op {
	case OpReset:
		parts = append(parts, strconv.Itoa(c.Index))
	case OpRon:
		parts = append(parts, c.DealIn)
	}
	parts = append(parts, c.Seats...)
	for _, w := range c.Wins {
		parts = append(parts, w.Winner, w.Han.String())
		if w.Fu != 0 {
			parts = append(parts, strconv.Itoa(w.Fu))
		}
		if w.Pao != "" {
			parts = append(parts, "pao", w.Pao)
		}
	}
	return strings.Join(parts, " ")
}

// Help is the usage text shown by interactive surfaces.
const Help = `start                                   begin the game
deal                                    start the current hand
riichi <seat>...                        declare riichi
unriichi <seat>...                      take a riichi back
draw [tenpai seat...]                   exhaustive draw
tsumo <winner> <han> [fu] [pao <seat>]  self-drawn win
ron <deal-in> <winner> <han> [fu] ...   ron, repeat winner groups for multiple ron
chombo <seat>...                        void the hand
next                                    set up the next hand
finish                                  end the game now
reset <index>                           rewind to a logged hand`
