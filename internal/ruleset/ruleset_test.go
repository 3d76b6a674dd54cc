package ruleset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/riichibook/internal/seat"
)

func TestPresetsAreValid(t *testing.T) {
	t.Parallel()

	for _, name := range PresetNames() {
		rs, ok := Preset(name)
		require.True(t, ok, name)
		assert.NoError(t, rs.Validate(), name)
	}

	_, ok := Preset("nope")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Ruleset)
	}{
		{"two players", func(r *Ruleset) { r.NumPlayers = 2 }},
		{"no starting points", func(r *Ruleset) { r.StartingPoints = 0 }},
		{"free riichi", func(r *Ruleset) { r.RiichiCost = 0 }},
		{"honba not split over three", func(r *Ruleset) { r.HonbaPoints = 250 }},
		{"draw not split over three", func(r *Ruleset) { r.DrawTenpaiPoints = 1000 }},
		{"bad wind", func(r *Ruleset) { r.LastRoundWind = seat.Wind(9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := MLeague
			tt.mutate(&rs)
			assert.Error(t, rs.Validate())
		})
	}
}

func TestPresetIsCopied(t *testing.T) {
	t.Parallel()

	rs, _ := Preset("mleague")
	rs.StartingPoints = 1
	assert.Equal(t, 25000, MLeague.StartingPoints)
}

func TestRulesetJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Tenhou)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"last_round_wind":"south"`)
	assert.Contains(t, string(data), `"left_over_riichi_sticks":"abandon"`)

	var decoded Ruleset
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Tenhou, decoded)
}
