package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/riichibook/internal/points"
	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

func roundTrip(t *testing.T, g *Game) *Game {
	t.Helper()
	data, err := Marshal(g)
	require.NoError(t, err)
	decoded, err := Unmarshal(data, WithLogger(testLogger))
	require.NoError(t, err)
	return decoded
}

func TestRoundTripNotStarted(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, ruleset.MLeague)
	decoded := roundTrip(t, g)
	assert.Equal(t, g, decoded)
	assert.NotSame(t, g, decoded)
}

func TestRoundTripMidSession(t *testing.T) {
	t.Parallel()

	g := startedGame(t, ruleset.MLeague)
	for i := 0; i < 6; i++ {
		playHand(t, g, draw(seat.West), seat.West)
		require.NoError(t, g.SetUpNextHandOrFinishGame())
	}
	require.NoError(t, g.StartCurrentHand())
	require.NoError(t, g.PlayerRiichi(seat.North))

	decoded := roundTrip(t, g)
	assert.Equal(t, g, decoded)
	assert.NotSame(t, g.players, decoded.players)
	assert.NotSame(t, g.hand, decoded.hand)

	// The decoded session keeps playing like the original.
	for _, s := range []*Game{g, decoded} {
		require.NoError(t, s.FinishCurrentHand(ron(seat.East, seat.North, points.TierHan(points.Haneman), 0)))
		require.True(t, s.SaveHandLog())
	}
	assert.Equal(t, g.Log(), decoded.Log())
	assert.Equal(t, allPoints(g), allPoints(decoded))
}

func TestRoundTripFinished(t *testing.T) {
	t.Parallel()

	g := startedGame(t, ruleset.MLeague)
	for g.IsOnGoing() {
		playHand(t, g, draw())
		require.NoError(t, g.SetUpNextHandOrFinishGame())
	}
	require.True(t, g.IsFinished())
	require.NoError(t, g.SetUploadID("remote-7"))

	decoded := roundTrip(t, g)
	assert.Equal(t, g, decoded)
	assert.Equal(t, allRanks(g), allRanks(decoded))
	assert.Equal(t, "remote-7", decoded.UploadID())
}

func TestRoundTripThreePlayers(t *testing.T) {
	t.Parallel()

	g := startedGame(t, ruleset.Sanma)
	playHand(t, g, Tsumo{Winner: seat.West, Han: points.HanCount(2), Fu: 40}, seat.West)
	require.NoError(t, g.SetUpNextHandOrFinishGame())

	decoded := roundTrip(t, g)
	assert.Equal(t, g, decoded)
}

func TestMarshalShape(t *testing.T) {
	t.Parallel()

	g := startedGame(t, ruleset.MLeague)
	playHand(t, g, ron(seat.South, seat.East, points.HanCount(1), 30))

	data, err := Marshal(g)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"state", "ruleset", "players", "current_hand", "log", "abandoned_riichi_sticks"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "upload_id")
	assert.JSONEq(t, `"on_going"`, string(raw["state"]))

	empty, err := Marshal(newTestGame(t, ruleset.MLeague))
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"log":[]`)
}

func TestUnmarshalRejects(t *testing.T) {
	t.Parallel()

	g := startedGame(t, ruleset.MLeague)
	playHand(t, g, draw())
	good, err := Marshal(g)
	require.NoError(t, err)

	mutate := func(f func(m map[string]any)) []byte {
		var m map[string]any
		require.NoError(t, json.Unmarshal(good, &m))
		f(m)
		out, err := json.Marshal(m)
		require.NoError(t, err)
		return out
	}

	tests := map[string][]byte{
		"not json":        []byte(`{`),
		"missing players": mutate(func(m map[string]any) { delete(m, "players") }),
		"missing hand":    mutate(func(m map[string]any) { delete(m, "current_hand") }),
		"bad state":       mutate(func(m map[string]any) { m["state"] = "paused" }),
		"bad ruleset": mutate(func(m map[string]any) {
			m["ruleset"].(map[string]any)["num_players"] = 5
		}),
		"player count": mutate(func(m map[string]any) {
			m["ruleset"] = mustJSONValue(t, ruleset.Sanma)
		}),
		"incomplete log": mutate(func(m map[string]any) {
			delete(m["log"].([]any)[0].(map[string]any), "players")
		}),
	}
	for name, data := range tests {
		_, err := Unmarshal(data)
		assert.Error(t, err, name)
	}
}

func mustJSONValue(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
