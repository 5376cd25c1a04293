package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planning-poker/internal/repository"
	"github.com/iliyamo/planning-poker/internal/utils"
)

// RequireFacilitator guards facilitator-only routes.  It must run after
// ParticipantAuth.  Facilitator status is read from the store on every
// request rather than trusted from the token, so promotions and kicks
// take effect immediately.
func RequireFacilitator(store repository.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			name, _ := c.Get("participant_name").(string)
			room, _ := c.Get("room_code").(string)
			if name == "" || room == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing identity"})
			}

			p, err := store.GetParticipant(c.Request().Context(), utils.NormalizeRoomCode(room), name)
			if err != nil {
				if errors.Is(err, repository.ErrParticipantNotFound) {
					// Kicked or room gone; the token no longer maps to a
					// live participant.
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "participant no longer in room"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if !p.IsFacilitator {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "facilitator role required"})
			}
			return next(c)
		}
	}
}
