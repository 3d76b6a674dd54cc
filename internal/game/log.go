package game

import "fmt"

// LogKind tags what a log entry records.
type LogKind int

const (
	LogRegular LogKind = iota
	LogChombo
	LogLeftoverRiichiSticks
)

var logKindNames = [...]string{"regular", "chombo", "left_over_riichi_sticks"}

func (k LogKind) String() string {
	if k < 0 || int(k) >= len(logKindNames) {
		return fmt.Sprintf("log_kind(%d)", int(k))
	}
	return logKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k LogKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *LogKind) UnmarshalText(text []byte) error {
	for i, name := range logKindNames {
		if name == string(text) {
			*k = LogKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown log kind %q", text)
}

// LogEntry is a snapshot taken after a hand. Entries are never changed once
// appended.
type LogEntry struct {
	State   State    `json:"state"`
	Kind    LogKind  `json:"log_type"`
	Hand    *Hand    `json:"hand"`
	Players *Players `json:"players"`
}

func (e LogEntry) clone() LogEntry {
	return LogEntry{State: e.State, Kind: e.Kind, Hand: e.Hand.Clone(), Players: e.Players.Clone()}
}

func (g *Game) appendLog(kind LogKind) {
	g.log = append(g.log, LogEntry{
		State:   g.state,
		Kind:    kind,
		Hand:    g.hand.Clone(),
		Players: g.players.Clone(),
	})
}

// SaveHandLog snapshots the current hand once it has finished. It reports
// whether an entry was written; outside a running game or before the hand
// is finished it does nothing.
func (g *Game) SaveHandLog() bool {
	if g.state != OnGoing || !g.hand.IsFinished() || g.hand.Results == nil {
		return false
	}
	kind := LogRegular
	if g.hand.Results.Outcome.Kind() == KindChombo {
		kind = LogChombo
	}
	g.appendLog(kind)
	return true
}

// SaveLogForLeftOverRiichiSticks snapshots the final settlement. It only
// writes once the game is finished.
func (g *Game) SaveLogForLeftOverRiichiSticks() bool {
	if g.state != Finished {
		return false
	}
	g.appendLog(LogLeftoverRiichiSticks)
	return true
}

// Log returns copies of every entry in order.
func (g *Game) Log() []LogEntry {
	out := make([]LogEntry, len(g.log))
	for i, e := range g.log {
		out[i] = e.clone()
	}
	return out
}

// CurrentHandIndex is the log index the current hand will take when saved.
func (g *Game) CurrentHandIndex() int {
	return len(g.log)
}

// HandsPlayed counts the hand entries in the log, chombo included.
func (g *Game) HandsPlayed() int {
	n := 0
	for _, e := range g.log {
		if e.Kind != LogLeftoverRiichiSticks {
			n++
		}
	}
	return n
}

// ResetToPreviousFinishedHand rewinds the game to just after the hand
// recorded at index, dropping every later entry. The restored hand is saved
// again so the log ends with it.
func (g *Game) ResetToPreviousFinishedHand(index int) error {
	if g.state == NotStarted {
		return g.reject(illegal("reset before the game started"))
	}
	if index < 0 || index >= len(g.log) {
		return fmt.Errorf("log index %d out of range [0, %d)", index, len(g.log))
	}
	entry := g.log[index]
	if entry.Kind == LogLeftoverRiichiSticks {
		return fmt.Errorf("log entry %d is a settlement, not a hand", index)
	}

	g.log = g.log[:index]
	g.state = entry.State
	g.hand = entry.Hand.Clone()
	g.players = entry.Players.Clone()
	g.abandonedRiichiSticks = 0
	g.uploadID = ""
	g.SaveHandLog()
	g.logger.Info("Reset to earlier hand", "index", index, "hand", g.hand.Signature())
	return g.SanityCheckTotalPoints()
}
