package utils

import (
	"strings"
	"testing"
)

func TestNewRoomCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := NewRoomCode()
		if len(code) != RoomCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), RoomCodeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q, not in alphabet", code, r)
			}
		}
		if !ValidRoomCode(code) {
			t.Fatalf("generated code %q did not validate", code)
		}
		seen[code] = true
	}
	// 200 draws from 32^6 combinations colliding down to a handful
	// would indicate a broken generator.
	if len(seen) < 190 {
		t.Fatalf("only %d distinct codes out of 200", len(seen))
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	cases := []struct{ in, want string }{
		{"abc234", "ABC234"},
		{"  XyZ789 ", "XYZ789"},
		{"ABCDEF", "ABCDEF"},
	}
	for _, tc := range cases {
		if got := NormalizeRoomCode(tc.in); got != tc.want {
			t.Errorf("NormalizeRoomCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidRoomCode(t *testing.T) {
	if ValidRoomCode("AB12") {
		t.Error("short code should not validate")
	}
	if ValidRoomCode("ABC10D") {
		t.Error("codes containing ambiguous characters should not validate")
	}
	if !ValidRoomCode("ABC234") {
		t.Error("ABC234 should validate")
	}
}
