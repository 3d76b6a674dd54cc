package game

import (
	"encoding/json"
	"fmt"

	"github.com/lox/riichibook/internal/ruleset"
)

type gameJSON struct {
	State                 State           `json:"state"`
	Ruleset               ruleset.Ruleset `json:"ruleset"`
	Players               *Players        `json:"players"`
	CurrentHand           *Hand           `json:"current_hand"`
	Log                   []LogEntry      `json:"log"`
	AbandonedRiichiSticks int             `json:"abandoned_riichi_sticks"`
	UploadID              string          `json:"upload_id,omitempty"`
}

// Marshal encodes the whole session, log included.
func Marshal(g *Game) ([]byte, error) {
	return json.Marshal(g)
}

// MarshalJSON implements json.Marshaler.
func (g *Game) MarshalJSON() ([]byte, error) {
	entries := g.log
	if entries == nil {
		entries = []LogEntry{}
	}
	return json.Marshal(gameJSON{
		State:                 g.state,
		Ruleset:               g.ruleset,
		Players:               g.players,
		CurrentHand:           g.hand,
		Log:                   entries,
		AbandonedRiichiSticks: g.abandonedRiichiSticks,
		UploadID:              g.uploadID,
	})
}

// Unmarshal decodes a session written by Marshal. The result shares no
// memory with any other Game.
func Unmarshal(data []byte, opts ...Option) (*Game, error) {
	var in gameJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	if err := in.Ruleset.Validate(); err != nil {
		return nil, fmt.Errorf("decode game: invalid ruleset: %w", err)
	}
	if in.Players == nil || in.CurrentHand == nil {
		return nil, fmt.Errorf("decode game: missing players or current hand")
	}
	if in.Players.NumPlayers() != in.Ruleset.NumPlayers {
		return nil, fmt.Errorf("decode game: %d players for a %d player ruleset",
			in.Players.NumPlayers(), in.Ruleset.NumPlayers)
	}
	for i, e := range in.Log {
		if e.Hand == nil || e.Players == nil {
			return nil, fmt.Errorf("decode game: log entry %d is incomplete", i)
		}
	}

	var entries []LogEntry
	if len(in.Log) > 0 {
		entries = in.Log
	}
	o := buildOptions(opts)
	return &Game{
		state:                 in.State,
		ruleset:               in.Ruleset,
		players:               in.Players,
		hand:                  in.CurrentHand,
		log:                   entries,
		abandonedRiichiSticks: in.AbandonedRiichiSticks,
		uploadID:              in.UploadID,
		logger:                o.logger,
	}, nil
}
