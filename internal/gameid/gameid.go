// Package gameid mints the identifiers stamped on matches and hand
// records: UUIDv7 encoded as 26 characters of Crockford base32, so ids
// sort lexicographically in creation order.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// Crockford's alphabet: lowercase, no i/l/o/u.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Source supplies the random tail of an id. *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Generate returns a fresh id: wall-clock milliseconds up front,
// crypto-random tail.
func Generate() string {
	var tail [10]byte
	if _, err := rand.Read(tail[:]); err != nil {
		panic("gameid: " + err.Error())
	}
	return encode(build(time.Now().UnixMilli(), tail))
}

// GenerateAt builds an id from an explicit timestamp and random
// source. Fixed inputs give a fixed id, which keeps hand records
// byte-identical across seeded runs.
func GenerateAt(ms int64, src Source) string {
	var tail [10]byte
	for i := range tail {
		tail[i] = byte(src.IntN(256))
	}
	return encode(build(ms, tail))
}

// build lays out a UUIDv7: 48-bit timestamp, version and variant bits,
// random elsewhere.
func build(ms int64, tail [10]byte) [16]byte {
	var u [16]byte
	for i := 0; i < 6; i++ {
		u[i] = byte(ms >> (40 - 8*i))
	}
	copy(u[6:], tail[:])
	u[6] = u[6]&0x0f | 0x70
	u[8] = u[8]&0x3f | 0x80
	return u
}

// encode maps 128 bits to 26 base32 characters, most significant bits
// first, padding the final character's low two bits with zeros.
func encode(u [16]byte) string {
	var b [26]byte
	var acc uint
	nbits, n := 0, 0
	for _, octet := range u {
		acc = acc<<8 | uint(octet)
		nbits += 8
		for nbits >= 5 {
			nbits -= 5
			b[n] = alphabet[acc>>uint(nbits)&31]
			n++
		}
	}
	b[n] = alphabet[acc<<uint(5-nbits)&31]
	return string(b[:])
}

// Validate reports whether id has the shape Generate produces.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game id must be 26 characters, got %d", len(id))
	}
	// The first character holds the top five bits of the 48-bit
	// millisecond timestamp, which stay under 8 until the year 4199.
	if id[0] > '7' {
		return fmt.Errorf("game id first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
