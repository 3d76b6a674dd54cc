// Package seat defines the four winds used to address seats at the table.
//
// A player's id is the wind they started the game on. Their current wind
// rotates from hand to hand; the id never does.
package seat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wind is one of the four seat winds in table order.
type Wind uint8

const (
	East Wind = iota
	South
	West
	North
)

// Count is the number of seat slots at a table.
const Count = 4

// Order lists the winds in their fixed cyclic order.
var Order = [Count]Wind{East, South, West, North}

var windNames = [Count]string{"east", "south", "west", "north"}

// First returns the first n winds in table order.
func First(n int) []Wind {
	if n < 0 {
		n = 0
	}
	if n > Count {
		n = Count
	}
	winds := make([]Wind, n)
	copy(winds, Order[:n])
	return winds
}

// Valid reports whether w is one of the four winds.
func (w Wind) Valid() bool {
	return w < Count
}

// Next returns the following wind in the four-wind cycle.
func (w Wind) Next() Wind {
	return Wind((int(w) + 1) % Count)
}

// Prev returns the preceding wind in the four-wind cycle.
func (w Wind) Prev() Wind {
	return Wind((int(w) + Count - 1) % Count)
}

// NextAmong returns the following wind when only the first n winds are seated.
func (w Wind) NextAmong(n int) Wind {
	return Wind((int(w) + 1) % n)
}

// PrevAmong returns the preceding wind when only the first n winds are seated.
func (w Wind) PrevAmong(n int) Wind {
	return Wind((int(w) + n - 1) % n)
}

func (w Wind) String() string {
	if !w.Valid() {
		return fmt.Sprintf("wind(%d)", uint8(w))
	}
	return windNames[w]
}

// Short returns the single letter abbreviation (E, S, W, N).
func (w Wind) Short() string {
	if !w.Valid() {
		return "?"
	}
	return strings.ToUpper(windNames[w][:1])
}

// Parse accepts a full wind name or its first letter, case insensitive.
func Parse(s string) (Wind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range windNames {
		if s == name || (len(s) == 1 && s[0] == name[0]) {
			return Wind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown wind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (w Wind) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid wind %d", uint8(w))
	}
	return []byte(windNames[w]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Wind) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Ptr returns a pointer to a copy of w, for optional seat fields.
func Ptr(w Wind) *Wind {
	return &w
}

// Set is a small set of winds.
type Set uint8

// NewSet builds a set from the given winds.
func NewSet(winds ...Wind) Set {
	var s Set
	for _, w := range winds {
		s = s.Add(w)
	}
	return s
}

// Has reports whether w is in the set.
func (s Set) Has(w Wind) bool {
	return w.Valid() && s&(1<<w) != 0
}

// Add returns the set with w included.
func (s Set) Add(w Wind) Set {
	if !w.Valid() {
		return s
	}
	return s | 1<<w
}

// Remove returns the set with w excluded.
func (s Set) Remove(w Wind) Set {
	if !w.Valid() {
		return s
	}
	return s &^ (1 << w)
}

// Len returns the number of winds in the set.
func (s Set) Len() int {
	n := 0
	for _, w := range Order {
		if s.Has(w) {
			n++
		}
	}
	return n
}

// Winds returns the members in table order.
func (s Set) Winds() []Wind {
	winds := make([]Wind, 0, Count)
	for _, w := range Order {
		if s.Has(w) {
			winds = append(winds, w)
		}
	}
	return winds
}

// SubsetOf reports whether every member of s is also in other.
func (s Set) SubsetOf(other Set) bool {
	return s&^other == 0
}

func (s Set) String() string {
	names := make([]string, 0, Count)
	for _, w := range s.Winds() {
		names = append(names, w.String())
	}
	return "[" + strings.Join(names, " ") + "]"
}

// MarshalJSON encodes the set as a list of wind names in table order.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Winds())
}

// UnmarshalJSON decodes a list of wind names.
func (s *Set) UnmarshalJSON(data []byte) error {
	var winds []Wind
	if err := json.Unmarshal(data, &winds); err != nil {
		return err
	}
	*s = NewSet(winds...)
	return nil
}
