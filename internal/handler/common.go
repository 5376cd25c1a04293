// Package handler contains the HTTP endpoints.  Handlers bind request
// DTOs, delegate to the room service and translate its error taxonomy
// into status codes; they hold no domain logic of their own.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planning-poker/internal/repository"
)

// serviceError maps the service/repository error taxonomy onto HTTP
// responses.  Unknown errors become opaque 500s; their detail belongs
// in the log, not on the wire.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrStoryNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "story not found"})
	case errors.Is(err, repository.ErrParticipantNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "participant not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// participantName returns the authenticated identity injected by the
// JWT middleware.
func participantName(c echo.Context) string {
	name, _ := c.Get("participant_name").(string)
	return name
}
