package command

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/points"
	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

var testLogger = log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})

func newGame(t *testing.T) *game.Game {
	t.Helper()
	g, err := game.NewGame(ruleset.MLeague, []string{"Aki", "Ben", "Chie", "Dan"}, seat.First(4), game.WithLogger(testLogger))
	require.NoError(t, err)
	return g
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want Command
	}{
		{"start", Command{Op: OpStart}},
		{"  DEAL ", Command{Op: OpDeal}},
		{"riichi east west", Command{Op: OpRiichi, Seats: []string{"east", "west"}}},
		{"unriichi Ben", Command{Op: OpUnRiichi, Seats: []string{"Ben"}}},
		{"draw", Command{Op: OpDraw}},
		{"draw e s", Command{Op: OpDraw, Seats: []string{"e", "s"}}},
		{"tsumo south 3 30", Command{Op: OpTsumo, Wins: []Win{{Winner: "south", Han: points.HanCount(3), Fu: 30}}}},
		{"tsumo north yakuman pao west", Command{Op: OpTsumo, Wins: []Win{{Winner: "north", Han: points.TierHan(points.Yakuman), Pao: "west"}}}},
		{"ron north east 3 30", Command{Op: OpRon, DealIn: "north", Wins: []Win{{Winner: "east", Han: points.HanCount(3), Fu: 30}}}},
		{"ron north east 2 40 west mangan south 1 30", Command{Op: OpRon, DealIn: "north", Wins: []Win{
			{Winner: "east", Han: points.HanCount(2), Fu: 40},
			{Winner: "west", Han: points.TierHan(points.Mangan)},
			{Winner: "south", Han: points.HanCount(1), Fu: 30},
		}}},
		{"ron south east double_yakuman pao west north 13", Command{Op: OpRon, DealIn: "south", Wins: []Win{
			{Winner: "east", Han: points.TierHan(points.DoubleYakuman), Pao: "west"},
			{Winner: "north", Han: points.HanCount(13)},
		}}},
		{"chombo west", Command{Op: OpChombo, Seats: []string{"west"}}},
		{"next", Command{Op: OpNext}},
		{"finish", Command{Op: OpFinish}},
		{"reset 3", Command{Op: OpReset, Index: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok, err := Parse(tt.line)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"", "   ", "# east 1", "#"} {
		_, ok, err := Parse(line)
		assert.NoError(t, err)
		assert.False(t, ok, "%q", line)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	_, _, err := Parse("pon east")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	for _, line := range []string{
		"start now",
		"riichi",
		"chombo",
		"reset",
		"reset x",
		"tsumo",
		"tsumo east",
		"tsumo east 14",
		"tsumo east 3 30 west 2 30",
		"ron",
		"ron north",
		"ron north east",
		"ron north east 3 30 pao",
		"ron north east giant",
	} {
		_, _, err := Parse(line)
		assert.Error(t, err, line)
	}
}

func TestCommandString(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"start",
		"riichi east west",
		"draw",
		"draw east",
		"tsumo south 3 30",
		"tsumo north YAKUMAN pao west",
		"ron north east 2 40 west MANGAN",
		"reset 2",
	} {
		c, ok, err := Parse(line)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, line, c.String())
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	g := newGame(t)
	id, err := Resolve(g, "chie")
	require.NoError(t, err)
	assert.Equal(t, seat.West, id)

	id, err = Resolve(g, "N")
	require.NoError(t, err)
	assert.Equal(t, seat.North, id)

	_, err = Resolve(g, "Eve")
	assert.Error(t, err)

	require.NoError(t, ApplyLine(g, "start"))
	require.NoError(t, ApplyLine(g, "deal"))
	require.NoError(t, ApplyLine(g, "draw"))
	require.NoError(t, ApplyLine(g, "next"))

	// Ben deals now.
	id, err = Resolve(g, "east")
	require.NoError(t, err)
	assert.Equal(t, seat.South, id)
	id, err = Resolve(g, "north")
	require.NoError(t, err)
	assert.Equal(t, seat.East, id)
}

func TestResolveThreePlayers(t *testing.T) {
	t.Parallel()

	g, err := game.NewGame(ruleset.Sanma, []string{"A", "B", "C"}, seat.First(3), game.WithLogger(testLogger))
	require.NoError(t, err)
	_, err = Resolve(g, "north")
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	t.Parallel()

	script := `# an east round start
start
deal
riichi south
ron east south 3 30
next

deal
tsumo east mangan
next
finish
`
	g := newGame(t)
	n, err := Replay(g, strings.NewReader(script))
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	assert.True(t, g.IsFinished())
	var pts []int
	for _, id := range g.Seats() {
		pts = append(pts, g.PlayerPoints(id))
	}
	assert.Equal(t, []int{17100, 40900, 21000, 21000}, pts)
	assert.Equal(t, 1, g.PlayerRank(seat.South))
	assert.Equal(t, 4, g.PlayerRank(seat.East))
	assert.Equal(t, 2, g.HandsPlayed())
}

func TestReplayStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	g := newGame(t)
	n, err := Replay(g, strings.NewReader("start\ndeal\nriichi east\nron east east 1 30\n"))
	assert.Equal(t, 3, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 4")
	assert.ErrorIs(t, err, game.ErrInvalidResults)

	g = newGame(t)
	_, err = Replay(g, strings.NewReader("start\nkan east\n"))
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), "line 2")
}

func TestApplyRiichiToggle(t *testing.T) {
	t.Parallel()

	g := newGame(t)
	require.NoError(t, ApplyLine(g, "start"))
	require.NoError(t, ApplyLine(g, "deal"))
	require.NoError(t, ApplyLine(g, "riichi aki dan"))
	assert.Equal(t, 2, g.CurrentHand().RiichiSticks)
	require.NoError(t, ApplyLine(g, "unriichi dan"))
	assert.Equal(t, 1, g.CurrentHand().RiichiSticks)
	assert.Equal(t, 25000, g.PlayerPoints(seat.North))
	assert.Equal(t, 24000, g.PlayerPoints(seat.East))
}

func TestApplyChombo(t *testing.T) {
	t.Parallel()

	g := newGame(t)
	require.NoError(t, ApplyLine(g, "start"))
	require.NoError(t, ApplyLine(g, "deal"))
	require.NoError(t, ApplyLine(g, "chombo west"))
	entries := g.Log()
	require.Len(t, entries, 1)
	assert.Equal(t, game.LogChombo, entries[0].Kind)
	assert.Equal(t, game.Chombo{Offenders: seat.NewSet(seat.West)}, entries[0].Hand.Results.Outcome)
}

func TestApplyReset(t *testing.T) {
	t.Parallel()

	g := newGame(t)
	_, err := Replay(g, strings.NewReader("start\ndeal\ndraw east\nnext\ndeal\ndraw\n"))
	require.NoError(t, err)
	require.Len(t, g.Log(), 2)
	require.NoError(t, ApplyLine(g, "reset 0"))
	assert.Len(t, g.Log(), 1)
}

func TestOutcomeRejectsNonResults(t *testing.T) {
	t.Parallel()

	_, err := Outcome(newGame(t), Command{Op: OpNext})
	assert.Error(t, err)
}
