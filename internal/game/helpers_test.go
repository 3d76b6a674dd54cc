package game

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/riichibook/internal/points"
	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

var testLogger = log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})

var testNames = []string{"P1", "P2", "P3", "P4"}

func newTestGame(t *testing.T, rs ruleset.Ruleset) *Game {
	t.Helper()
	g, err := NewGame(rs, testNames[:rs.NumPlayers], seat.First(rs.NumPlayers), WithLogger(testLogger))
	require.NoError(t, err)
	return g
}

func startedGame(t *testing.T, rs ruleset.Ruleset) *Game {
	t.Helper()
	g := newTestGame(t, rs)
	require.NoError(t, g.Start())
	return g
}

// playHand starts the current hand, declares riichi for the given seats,
// finishes it with o and saves the log entry.
func playHand(t *testing.T, g *Game, o Outcome, riichi ...seat.Wind) {
	t.Helper()
	require.NoError(t, g.StartCurrentHand())
	for _, w := range riichi {
		require.NoError(t, g.PlayerRiichi(w))
	}
	require.NoError(t, g.FinishCurrentHand(o))
	require.True(t, g.SaveHandLog())
}

func allPoints(g *Game) []int {
	out := make([]int, 0, g.NumPlayers())
	for _, id := range g.Seats() {
		out = append(out, g.PlayerPoints(id))
	}
	return out
}

func allRanks(g *Game) []int {
	out := make([]int, 0, g.NumPlayers())
	for _, id := range g.Seats() {
		out = append(out, g.PlayerRank(id))
	}
	return out
}

func ron(dealIn, winner seat.Wind, han points.Han, fu int) Ron {
	return Ron{DealIn: dealIn, Wins: []RonWin{{Winner: winner, Han: han, Fu: fu}}}
}

func draw(tenpai ...seat.Wind) Draw {
	return Draw{Tenpai: seat.NewSet(tenpai...)}
}

// ongoingHand returns a hand in play with fresh players.
func ongoingHand(t *testing.T, rs ruleset.Ruleset) (*Hand, *Players) {
	t.Helper()
	players, err := NewPlayers(rs, testNames[:rs.NumPlayers])
	require.NoError(t, err)
	h := NewHand(seat.East, 1, 0, 0)
	require.NoError(t, h.Start())
	return h, players
}

func pointsOf(p *Players) []int {
	out := make([]int, 0, p.NumPlayers())
	for _, id := range p.Seats() {
		player, _ := p.GetPlayer(id)
		out = append(out, player.Points)
	}
	return out
}
