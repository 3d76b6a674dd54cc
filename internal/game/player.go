package game

import (
	"encoding/json"
	"fmt"

	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

// Player is one seat's record. Its id is the wind it started on, which is
// the slot it occupies in Players.
type Player struct {
	Name        string    `json:"name"`
	CurrentWind seat.Wind `json:"current_wind"`
	Points      int       `json:"points"`
}

// IsDealer reports whether the player currently holds east.
func (p *Player) IsDealer() bool {
	return p.CurrentWind == seat.East
}

// ApplyPointsDelta adds delta to the player's points.
func (p *Player) ApplyPointsDelta(delta int) {
	p.Points += delta
}

// Players is a fixed arena of seat slots indexed by starting wind.
type Players struct {
	n     int
	slots [seat.Count]Player
	rank  [seat.Count]int
}

// NewPlayers seats names in wind order starting at east.
func NewPlayers(rs ruleset.Ruleset, names []string) (*Players, error) {
	if len(names) != rs.NumPlayers {
		return nil, fmt.Errorf("need %d player names, got %d", rs.NumPlayers, len(names))
	}
	p := &Players{n: rs.NumPlayers}
	for i, w := range seat.First(rs.NumPlayers) {
		p.slots[w] = Player{
			Name:        names[i],
			CurrentWind: w,
			Points:      rs.StartingPoints,
		}
	}
	return p, nil
}

// NumPlayers returns the number of populated seats.
func (p *Players) NumPlayers() int {
	return p.n
}

// Seats returns the player ids in table order.
func (p *Players) Seats() []seat.Wind {
	return seat.First(p.n)
}

// Has reports whether id is a populated seat.
func (p *Players) Has(id seat.Wind) bool {
	return id.Valid() && int(id) < p.n
}

// GetPlayer returns the player with the given id. ok is false for seats
// that are not populated.
func (p *Players) GetPlayer(id seat.Wind) (player *Player, ok bool) {
	if !p.Has(id) {
		return nil, false
	}
	return &p.slots[id], true
}

// GetPlayers returns the players for ids in the given order, skipping ids
// that are not seated.
func (p *Players) GetPlayers(ids []seat.Wind) []Player {
	out := make([]Player, 0, len(ids))
	for _, id := range ids {
		if player, ok := p.GetPlayer(id); ok {
			out = append(out, *player)
		}
	}
	return out
}

// TotalPoints sums the points of every seat.
func (p *Players) TotalPoints() int {
	total := 0
	for _, id := range p.Seats() {
		total += p.slots[id].Points
	}
	return total
}

// ApplyPointsDelta adds each seat's entry to its points. Zero entries and
// unseated slots are left alone.
func (p *Players) ApplyPointsDelta(delta PointsDelta) {
	for _, id := range p.Seats() {
		p.slots[id].Points += delta[id]
	}
}

// ShiftSeats moves every player one wind backwards, so the seat to the
// dealer's right deals next.
func (p *Players) ShiftSeats() {
	for _, id := range p.Seats() {
		p.slots[id].CurrentWind = p.slots[id].CurrentWind.PrevAmong(p.n)
	}
}

// FindDealer returns the player currently on east. An error means the seat
// assignment is broken.
func (p *Players) FindDealer() (seat.Wind, *Player, error) {
	for _, id := range p.Seats() {
		if p.slots[id].IsDealer() {
			return id, &p.slots[id], nil
		}
	}
	return 0, nil, invariant("no player holds east")
}

// IsDealer reports whether id currently deals.
func (p *Players) IsDealer(id seat.Wind) bool {
	player, ok := p.GetPlayer(id)
	return ok && player.IsDealer()
}

// ComputeAndStorePlayersRank ranks seats by points. Ties share a rank:
// a seat's rank is one more than the number of seats strictly above it.
func (p *Players) ComputeAndStorePlayersRank() {
	for _, id := range p.Seats() {
		higher := 0
		for _, other := range p.Seats() {
			if p.slots[other].Points > p.slots[id].Points {
				higher++
			}
		}
		p.rank[id] = higher + 1
	}
}

// Rank returns the stored rank for id, 0 if none has been computed.
func (p *Players) Rank(id seat.Wind) int {
	if !p.Has(id) {
		return 0
	}
	return p.rank[id]
}

// TopPlayers returns ids holding rank 1 in table order.
func (p *Players) TopPlayers() []seat.Wind {
	var top []seat.Wind
	for _, id := range p.Seats() {
		if p.rank[id] == 1 {
			top = append(top, id)
		}
	}
	return top
}

// Clone returns an independent copy.
func (p *Players) Clone() *Players {
	c := *p
	return &c
}

type playersJSON struct {
	NumPlayers int                  `json:"num_players"`
	Players    map[seat.Wind]Player `json:"player_map"`
	Rank       map[seat.Wind]int    `json:"player_rank"`
}

// MarshalJSON encodes the seats as maps keyed by wind name.
func (p *Players) MarshalJSON() ([]byte, error) {
	out := playersJSON{
		NumPlayers: p.n,
		Players:    make(map[seat.Wind]Player, p.n),
		Rank:       make(map[seat.Wind]int, p.n),
	}
	for _, id := range p.Seats() {
		out.Players[id] = p.slots[id]
		out.Rank[id] = p.rank[id]
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores what MarshalJSON wrote.
func (p *Players) UnmarshalJSON(data []byte) error {
	var in playersJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.NumPlayers != 3 && in.NumPlayers != 4 {
		return fmt.Errorf("players: invalid num_players %d", in.NumPlayers)
	}
	decoded := Players{n: in.NumPlayers}
	for _, id := range seat.First(in.NumPlayers) {
		player, ok := in.Players[id]
		if !ok {
			return fmt.Errorf("players: missing seat %s", id)
		}
		decoded.slots[id] = player
		decoded.rank[id] = in.Rank[id]
	}
	*p = decoded
	return nil
}
