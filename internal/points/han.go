package points

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Tier is a named limit hand. The zero value means "no tier".
type Tier int

const (
	NoTier Tier = iota
	Mangan
	Haneman
	Baiman
	Sanbaiman
	Yakuman
	DoubleYakuman
	TripleYakuman
)

var tierNames = map[Tier]string{
	Mangan:        "MANGAN",
	Haneman:       "HANEMAN",
	Baiman:        "BAIMAN",
	Sanbaiman:     "SANBAIMAN",
	Yakuman:       "YAKUMAN",
	DoubleYakuman: "DOUBLE_YAKUMAN",
	TripleYakuman: "TRIPLE_YAKUMAN",
}

// Tiers lists every named tier from lowest to highest.
var Tiers = []Tier{Mangan, Haneman, Baiman, Sanbaiman, Yakuman, DoubleYakuman, TripleYakuman}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// IsYakuman reports whether the tier is a yakuman or a multiple of one.
func (t Tier) IsYakuman() bool {
	return t >= Yakuman && t <= TripleYakuman
}

// ParseTier accepts a tier name, case insensitive, with '-' or ' ' allowed
// in place of '_'.
func ParseTier(s string) (Tier, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for tier, name := range tierNames {
		if name == norm {
			return tier, nil
		}
	}
	return NoTier, fmt.Errorf("unknown tier %q", s)
}

// MaxCountedHan is the highest han count accepted as a number; more is
// still a single counted yakuman.
const MaxCountedHan = 13

// Han is either a counted han number or a named tier, never both.
type Han struct {
	Count int
	Tier  Tier
}

// HanCount returns a counted han value.
func HanCount(n int) Han {
	return Han{Count: n}
}

// TierHan returns a named tier value.
func TierHan(t Tier) Han {
	return Han{Tier: t}
}

// IsZero reports whether no han was given.
func (h Han) IsZero() bool {
	return h.Count == 0 && h.Tier == NoTier
}

// Valid reports whether h is an accepted input value.
func (h Han) Valid() bool {
	if h.Tier != NoTier {
		_, ok := tierNames[h.Tier]
		return ok && h.Count == 0
	}
	return h.Count >= 1 && h.Count <= MaxCountedHan
}

// NeedsFu reports whether the value only resolves with a fu count.
func (h Han) NeedsFu() bool {
	return h.Tier == NoTier && h.Count >= 1 && h.Count <= 4
}

// AllowsPao reports whether a liability payer can be named for this value.
func (h Han) AllowsPao() bool {
	if h.Tier != NoTier {
		return h.Tier.IsYakuman()
	}
	return h.Count >= MaxCountedHan
}

func (h Han) String() string {
	if h.Tier != NoTier {
		return h.Tier.String()
	}
	return strconv.Itoa(h.Count)
}

// ParseHan accepts a number or a tier name.
func ParseHan(s string) (Han, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		h := HanCount(n)
		if !h.Valid() {
			return Han{}, fmt.Errorf("han out of range: %d", n)
		}
		return h, nil
	}
	tier, err := ParseTier(s)
	if err != nil {
		return Han{}, err
	}
	return TierHan(tier), nil
}

// MarshalJSON encodes a count as a number and a tier as its name.
func (h Han) MarshalJSON() ([]byte, error) {
	if h.Tier != NoTier {
		return json.Marshal(h.Tier.String())
	}
	return json.Marshal(h.Count)
}

// UnmarshalJSON accepts the forms written by MarshalJSON.
func (h *Han) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*h = HanCount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("han must be a number or a tier name: %w", err)
	}
	tier, err := ParseTier(s)
	if err != nil {
		return err
	}
	*h = TierHan(tier)
	return nil
}
