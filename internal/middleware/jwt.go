package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// ParticipantAuth returns an Echo middleware that validates a Bearer
// session token and injects the participant name and room code into the
// request context.  The token is identity only; facilitator checks are
// done against the store by RequireFacilitator because promotion and
// demotion can happen while a token is live.  Handlers read the values
// via c.Get("participant_name") and c.Get("room_code").
func ParticipantAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer " followed by the JWT.  Anything
			// else is a 401 without touching the store.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and our secret; reject any other signing
			// method so an attacker cannot downgrade to "none".
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			name, _ := claims["sub"].(string)
			room, _ := claims["room"].(string)
			if name == "" || room == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// The token is scoped to one room; a mismatch with the path
			// parameter means it was issued for somewhere else.
			if p := c.Param("code"); p != "" && !strings.EqualFold(p, room) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token not valid for this room"})
			}

			c.Set("participant_name", name)
			c.Set("room_code", room)
			return next(c)
		}
	}
}
