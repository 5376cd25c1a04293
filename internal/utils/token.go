package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ParticipantToken is a signed HS256 JWT identifying one participant
// in one room, plus its expiry.  It is identity, not authorization:
// facilitator status is always re-read from the store because it can
// change while the token is live.
type ParticipantToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewParticipantToken signs a token carrying the room code and the
// participant name.  Claims: sub (participant name), room, exp, iat.
func NewParticipantToken(secret, roomCode, name string, ttlMin int) (ParticipantToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  name,
		"room": roomCode,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return ParticipantToken{}, err
	}
	return ParticipantToken{Token: signed, Exp: exp}, nil
}
