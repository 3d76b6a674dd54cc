package display

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/riichibook/internal/command"
	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

var testLogger = log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})

func playedGame(t *testing.T, script string) *game.Game {
	t.Helper()
	g, err := game.NewGame(ruleset.MLeague, []string{"Aki", "Ben", "Chie", "Dan"}, seat.First(4), game.WithLogger(testLogger))
	require.NoError(t, err)
	_, err = command.Replay(g, strings.NewReader(script))
	require.NoError(t, err)
	return g
}

const session = `start
deal
riichi south
ron east south 3 30
next
deal
riichi north
draw north east
next
deal
tsumo west yakuman pao north
next
deal
chombo east
next
finish
`

func TestRows(t *testing.T) {
	t.Parallel()

	g := playedGame(t, session)
	rows := Rows(g.Log())
	require.Len(t, rows, 5)

	assert.Equal(t, Row{
		Index:          0,
		Signature:      "E1-0",
		StartingSticks: 0,
		Summary:        "Ron Aki -> Ben 3/30",
		Points:         []int{21100, 28900, 25000, 25000},
		Deltas:         []int{-3900, 4900, 0, 0},
		Tags:           []string{"D", "RW", "", ""},
	}, rows[0])

	// Aki sits north once Ben deals.
	assert.Equal(t, "E2-0", rows[1].Signature)
	assert.Equal(t, "Draw, tenpai Aki, Ben", rows[1].Summary)
	assert.Equal(t, []string{"RT", "T", "", ""}, rows[1].Tags)
	assert.Equal(t, []int{1500, 1500, -1500, -1500}, rows[1].Deltas)

	assert.Equal(t, "E2-1", rows[2].Signature)
	assert.Equal(t, 1, rows[2].StartingSticks)
	assert.Equal(t, "Tsumo Dan yakuman pao Aki", rows[2].Summary)
	assert.Equal(t, []string{"P", "", "", "W"}, rows[2].Tags)

	assert.Equal(t, "E3-0", rows[3].Signature)
	assert.Equal(t, "Chombo Chie", rows[3].Summary)
	assert.Equal(t, []string{"", "", "C", ""}, rows[3].Tags)
	assert.Equal(t, []int{0, 0, 0, 0}, rows[3].Deltas)

	assert.Equal(t, "Game over", rows[4].Summary)
	assert.Equal(t, []int{0, 0, 0, 0}, rows[4].Deltas)
}

func TestRowsSettlementDelta(t *testing.T) {
	t.Parallel()

	g := playedGame(t, "start\ndeal\nriichi south\ndraw south\nfinish\n")
	rows := Rows(g.Log())
	require.Len(t, rows, 2)
	assert.Equal(t, []int{0, 1000, 0, 0}, rows[1].Deltas)
	assert.Equal(t, []int{24000, 28000, 24000, 24000}, rows[1].Points)
	assert.Equal(t, []string{"", "", "", ""}, rows[1].Tags)
}

func TestCell(t *testing.T) {
	t.Parallel()

	r := Row{Points: []int{25000, 21100}, Deltas: []int{0, -3900}, Tags: []string{"", "RD"}}
	assert.Equal(t, "25000", r.Cell(0))
	assert.Equal(t, "21100 -3900 RD", r.Cell(1))
}

func TestExport(t *testing.T) {
	t.Parallel()

	g := playedGame(t, session)
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, g))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[", "export must not contain escape codes")
	assert.Contains(t, out, "Ruleset mleague, 4 players, state finished")
	for _, want := range []string{"Aki", "Ben", "Chie", "Dan", "E1-0", "E2-1", "Ron Aki -> Ben 3/30", "21100 -3900 D"} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, Standings(g)))
}

func TestStandings(t *testing.T) {
	t.Parallel()

	g := playedGame(t, "start\ndeal\nron east south 3 30\nnext\nfinish\n")
	assert.Equal(t, "1. Ben 28900\n2. Chie 25000\n2. Dan 25000\n4. Aki 21100\n", Standings(g))

	unfinished := playedGame(t, "start\n")
	assert.Equal(t, "-. Aki 25000\n-. Ben 25000\n-. Chie 25000\n-. Dan 25000\n", Standings(unfinished))
}

func TestExportFilename(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC)
	g := playedGame(t, "")
	assert.Equal(t, "riichi_20250314_Aki_Ben_Chie_Dan.txt", ExportFilename(g, day))

	odd, err := game.NewGame(ruleset.Sanma, []string{"Mr. X", "", "a/b"}, seat.First(3), game.WithLogger(testLogger))
	require.NoError(t, err)
	assert.Equal(t, "riichi_20250314_Mr-X_south_a-b.txt", ExportFilename(odd, day))
}

func TestTableHeaders(t *testing.T) {
	t.Parallel()

	g := playedGame(t, session)
	out := Table(g, NewStyles(PlainRenderer(io.Discard)))
	first := strings.SplitN(out, "\n", 3)[1]
	for _, h := range []string{"#", "Hand", "Sticks", "Result", "Aki", "Dan"} {
		assert.Contains(t, first, h)
	}
}
