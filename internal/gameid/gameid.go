// Package gameid generates session identifiers: UUIDv7 encoded as 26
// characters of Crockford base32, the same layout TypeID uses. Ids sort by
// creation time.
package gameid

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/coder/quartz"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of an encoded id.
const Length = 26

// Generator creates ids from a clock and a source of random bytes.
type Generator struct {
	clock quartz.Clock
	rand  io.Reader
}

// NewGenerator returns a generator. A nil clock uses the wall clock and a
// nil reader uses crypto/rand.
func NewGenerator(clock quartz.Clock, random io.Reader) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if random == nil {
		random = rand.Reader
	}
	return &Generator{clock: clock, rand: random}
}

var defaultGenerator = NewGenerator(nil, nil)

// New creates an id from the wall clock.
func New() string {
	id, err := defaultGenerator.New()
	if err != nil {
		panic("gameid: " + err.Error())
	}
	return id
}

// New creates an id stamped with the generator's clock.
func (g *Generator) New() (string, error) {
	var uuid [16]byte

	ms := g.clock.Now().UnixMilli()
	for i := 0; i < 6; i++ {
		uuid[i] = byte(ms >> (40 - 8*i))
	}
	if _, err := io.ReadFull(g.rand, uuid[6:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x70 // version 7
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // variant 10

	return encode(uuid), nil
}

// encode writes the 128 bits as 26 five-bit groups, the first group padded
// with two leading zero bits.
func encode(data [16]byte) string {
	out := make([]byte, Length)
	for i := range out {
		v := 0
		for j := 0; j < 5; j++ {
			bit := i*5 + j - 2
			v <<= 1
			if bit >= 0 && data[bit/8]&(0x80>>(bit%8)) != 0 {
				v |= 1
			}
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

func decode(id string) ([16]byte, error) {
	var data [16]byte
	if len(id) != Length {
		return data, fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return data, fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < Length; i++ {
		v := strings.IndexByte(alphabet, id[i])
		if v < 0 {
			return data, fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
		for j := 0; j < 5; j++ {
			bit := i*5 + j - 2
			if bit >= 0 && v&(0x10>>j) != 0 {
				data[bit/8] |= 0x80 >> (bit % 8)
			}
		}
	}
	return data, nil
}

// Validate checks that id is a well formed encoded id.
func Validate(id string) error {
	_, err := decode(id)
	return err
}

// Timestamp returns the creation time carried by id, to the millisecond.
func Timestamp(id string) (time.Time, error) {
	data, err := decode(id)
	if err != nil {
		return time.Time{}, err
	}
	var ms int64
	for i := 0; i < 6; i++ {
		ms = ms<<8 | int64(data[i])
	}
	return time.UnixMilli(ms), nil
}
