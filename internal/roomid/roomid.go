// Package roomid mints room and session identifiers.
package roomid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the size of an encoded identifier.
const Length = 26

// Generate returns a new room ID: a UUIDv7 encoded as 26 base32 characters,
// so IDs sort by creation time.
func Generate() string {
	return Encode(uuid.Must(uuid.NewV7()))
}

// Session returns a prefixed identifier for a seat, e.g. "bot-01j9...".
func Session(prefix string) string {
	return prefix + "-" + Generate()
}

// Encode writes id as base32, five bits per character, most significant
// first. The 130 bit output leaves the first character at most '7'.
func Encode(id uuid.UUID) string {
	result := make([]byte, Length)
	for i := range result {
		// the first character carries the top 3 bits, the rest 5 each
		bit := i*5 - 2
		var value uint8
		for b := 0; b < 5; b++ {
			pos := bit + b
			value <<= 1
			if pos >= 0 && id[pos/8]&(0x80>>(pos%8)) != 0 {
				value |= 1
			}
		}
		result[i] = alphabet[value]
	}
	return string(result)
}

// Decode reverses Encode.
func Decode(s string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := Validate(s); err != nil {
		return id, err
	}
	for i := 0; i < Length; i++ {
		value := uint8(strings.IndexByte(alphabet, s[i]))
		for b := 0; b < 5; b++ {
			pos := i*5 - 2 + b
			if pos < 0 || value&(0x10>>b) == 0 {
				continue
			}
			id[pos/8] |= 0x80 >> (pos % 8)
		}
	}
	return id, nil
}

// Validate checks that s looks like an ID from Generate.
func Validate(s string) error {
	if len(s) != Length {
		return fmt.Errorf("room ID must be exactly %d characters, got %d", Length, len(s))
	}
	if s[0] > '7' {
		return fmt.Errorf("room ID first character must be 0-7, got %c", s[0])
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", s[i], i)
		}
	}
	return nil
}
