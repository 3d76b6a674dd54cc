package server

import (
	"encoding/json"
	"time"

	"github.com/lox/riichibook/internal/game"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message stamped with now
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now,
	}, nil
}

// Client → Server Messages

// CreateSessionData starts a new session. Names are listed by starting wind
// unless StartingWinds says otherwise.
type CreateSessionData struct {
	Ruleset       string   `json:"ruleset,omitempty"`
	Names         []string `json:"names"`
	StartingWinds []string `json:"startingWinds,omitempty"`
}

type JoinSessionData struct {
	SessionID string `json:"sessionId"`
}

type LeaveSessionData struct {
	SessionID string `json:"sessionId"`
}

// CommandData carries one line of the recorder grammar, e.g. "ron north east 3 30".
type CommandData struct {
	SessionID string `json:"sessionId"`
	Line      string `json:"line"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SessionInfo struct {
	ID       string     `json:"id"`
	Ruleset  string     `json:"ruleset"`
	Players  []string   `json:"players"`
	State    game.State `json:"state"`
	Hand     string     `json:"hand"`
	Watchers int        `json:"watchers"`
}

type SessionListData struct {
	Sessions []SessionInfo `json:"sessions"`
}

// SessionStateData is the full snapshot of a session as written by the game codec.
type SessionStateData struct {
	SessionID string          `json:"sessionId"`
	Game      json.RawMessage `json:"game"`
}

// CommandAppliedData is broadcast to every watcher after a command succeeds,
// followed by the new session state.
type CommandAppliedData struct {
	SessionID string `json:"sessionId"`
	Command   string `json:"command"`
}

type SessionLeftData struct {
	SessionID string `json:"sessionId"`
}

// SessionInfoFromGame summarizes g for a session listing
func SessionInfoFromGame(id string, g *game.Game, watchers int) SessionInfo {
	players := make([]string, 0, g.NumPlayers())
	for _, w := range g.Seats() {
		players = append(players, g.PlayerName(w))
	}
	return SessionInfo{
		ID:       id,
		Ruleset:  g.Ruleset().Name,
		Players:  players,
		State:    g.State(),
		Hand:     g.CurrentHand().Signature(),
		Watchers: watchers,
	}
}
