package utils // package utils provides helper functions for codes and tokens

import (
	"crypto/rand"
	"strings"
)

// codeAlphabet is the room code alphabet: uppercase letters and digits
// with the visually ambiguous I, O, 0 and 1 excluded.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCodeLength is the fixed length of a room code.
const RoomCodeLength = 6

// NewRoomCode returns a random 6-character room code drawn from the
// unambiguous alphabet using crypto/rand.  The alphabet length divides
// 256 evenly, so a simple modulo introduces no bias.
func NewRoomCode() string {
	buf := make([]byte, RoomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; there is no
		// reasonable recovery if it does.
		panic("utils: crypto/rand unavailable: " + err.Error())
	}
	out := make([]byte, RoomCodeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out)
}

// NormalizeRoomCode upper-cases and trims a user-supplied code; input
// is case-insensitive everywhere in the API.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidRoomCode reports whether a normalized code has the right length
// and stays within the alphabet.
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
