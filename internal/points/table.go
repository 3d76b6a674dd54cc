// Package points maps han and fu to payments.
//
// Values below mangan live in fixed tables indexed by han (1-4) and a fu
// bucket; a zero entry means the combination does not exist for that way of
// winning. Limit hands are looked up by Tier.
package points

// Fus lists every accepted fu value; the index is the table bucket.
var Fus = [...]int{20, 25, 30, 40, 50, 60, 70, 80, 90, 100, 110}

const numFus = len(Fus)

// fuBucket returns the table column for fu, or -1.
func fuBucket(fu int) int {
	for i, f := range Fus {
		if f == fu {
			return i
		}
	}
	return -1
}

// ValidFu reports whether fu is one of the accepted fu values.
func ValidFu(fu int) bool {
	return fuBucket(fu) >= 0
}

type table [5][numFus]int

type splitTable [5][numFus][2]int

var ronNonDealer = table{
	1: {0, 0, 1000, 1300, 1600, 2000, 2300, 2600, 2900, 3200, 3600},
	2: {0, 1600, 2000, 2600, 3200, 3900, 4500, 5200, 5800, 6400, 7100},
	3: {0, 3200, 3900, 5200, 6400, 7700},
	4: {0, 6400, 7700},
}

var ronDealer = table{
	1: {0, 0, 1500, 2000, 2400, 2900, 3400, 3900, 4400, 4800, 5300},
	2: {0, 2400, 2900, 3900, 4800, 5800, 6800, 7700, 8700, 9600, 10600},
	3: {0, 4800, 5800, 7700, 9600, 11600},
	4: {0, 9600, 11600},
}

// [non-dealer pays, dealer pays]
var tsumoNonDealer = splitTable{
	1: {{}, {}, {300, 500}, {400, 700}, {400, 800}, {500, 1000}, {600, 1200}, {700, 1300}, {800, 1500}, {800, 1600}, {900, 1800}},
	2: {{400, 700}, {}, {500, 1000}, {700, 1300}, {800, 1600}, {1000, 2000}, {1200, 2300}, {1300, 2600}, {1500, 2900}, {1600, 3200}, {1800, 3600}},
	3: {{700, 1300}, {800, 1600}, {1000, 2000}, {1300, 2600}, {1600, 3200}, {2000, 3900}},
	4: {{1300, 2600}, {1600, 3200}, {2000, 3900}},
}

// each opponent pays
var tsumoDealer = table{
	1: {0, 0, 500, 700, 800, 1000, 1200, 1300, 1500, 1600, 1800},
	2: {700, 0, 1000, 1300, 1600, 2000, 2300, 2600, 2900, 3200, 3600},
	3: {1300, 1600, 2000, 2600, 3200, 3900},
	4: {2600, 3200, 3900},
}

type tierValues struct {
	ronNonDealer   int
	ronDealer      int
	tsumoNonDealer [2]int
	tsumoDealer    int
}

var tierTable = map[Tier]tierValues{
	Mangan:        {8000, 12000, [2]int{2000, 4000}, 4000},
	Haneman:       {12000, 18000, [2]int{3000, 6000}, 6000},
	Baiman:        {16000, 24000, [2]int{4000, 8000}, 8000},
	Sanbaiman:     {24000, 36000, [2]int{6000, 12000}, 12000},
	Yakuman:       {32000, 48000, [2]int{8000, 16000}, 16000},
	DoubleYakuman: {64000, 96000, [2]int{16000, 32000}, 32000},
	TripleYakuman: {96000, 144000, [2]int{24000, 48000}, 48000},
}

// Key is a resolved table entry: either a tier, or han 1-4 with a fu.
type Key struct {
	Han  int
	Fu   int
	Tier Tier
}

// IsTier reports whether the key addresses a limit hand.
func (k Key) IsTier() bool {
	return k.Tier != NoTier
}

// Resolve turns a han value and fu into a table key, promoting to a tier
// where the rules say so. ok is false when the input cannot name any entry.
func Resolve(h Han, fu int, roundUpMangan bool) (key Key, ok bool) {
	if !h.Valid() {
		return Key{}, false
	}
	if h.Tier != NoTier {
		return Key{Tier: h.Tier}, true
	}
	switch n := h.Count; {
	case n <= 4:
		if !ValidFu(fu) {
			return Key{}, false
		}
		if n == 3 && (fu >= 70 || (fu == 60 && roundUpMangan)) {
			return Key{Tier: Mangan}, true
		}
		if n == 4 && (fu >= 40 || (fu == 30 && roundUpMangan)) {
			return Key{Tier: Mangan}, true
		}
		return Key{Han: n, Fu: fu}, true
	case n == 5:
		return Key{Tier: Mangan}, true
	case n <= 7:
		return Key{Tier: Haneman}, true
	case n <= 10:
		return Key{Tier: Baiman}, true
	case n <= 12:
		return Key{Tier: Sanbaiman}, true
	default:
		return Key{Tier: Yakuman}, true
	}
}

func (k Key) cell() (han, bucket int, ok bool) {
	if k.Han < 1 || k.Han > 4 {
		return 0, 0, false
	}
	bucket = fuBucket(k.Fu)
	if bucket < 0 {
		return 0, 0, false
	}
	return k.Han, bucket, true
}

// Ron returns what the deal-in player pays for a ron win.
func Ron(k Key, dealer bool) (int, bool) {
	if k.IsTier() {
		v, ok := tierTable[k.Tier]
		if !ok {
			return 0, false
		}
		if dealer {
			return v.ronDealer, true
		}
		return v.ronNonDealer, true
	}
	han, bucket, ok := k.cell()
	if !ok {
		return 0, false
	}
	var value int
	if dealer {
		value = ronDealer[han][bucket]
	} else {
		value = ronNonDealer[han][bucket]
	}
	return value, value > 0
}

// TsumoNonDealer returns what each non-dealer and the dealer pay when a
// non-dealer wins by self draw.
func TsumoNonDealer(k Key) (nonDealerPays, dealerPays int, ok bool) {
	if k.IsTier() {
		v, found := tierTable[k.Tier]
		if !found {
			return 0, 0, false
		}
		return v.tsumoNonDealer[0], v.tsumoNonDealer[1], true
	}
	han, bucket, found := k.cell()
	if !found {
		return 0, 0, false
	}
	pair := tsumoNonDealer[han][bucket]
	return pair[0], pair[1], pair[0] > 0
}

// TsumoDealer returns what each opponent pays when the dealer wins by
// self draw.
func TsumoDealer(k Key) (int, bool) {
	if k.IsTier() {
		v, ok := tierTable[k.Tier]
		if !ok {
			return 0, false
		}
		return v.tsumoDealer, true
	}
	han, bucket, ok := k.cell()
	if !ok {
		return 0, false
	}
	value := tsumoDealer[han][bucket]
	return value, value > 0
}

// ValidRon reports whether the key exists in the ron tables.
func ValidRon(k Key) bool {
	_, ok := Ron(k, false)
	return ok
}

// ValidTsumo reports whether the key exists in the self draw tables.
func ValidTsumo(k Key) bool {
	_, _, ok := TsumoNonDealer(k)
	return ok
}
