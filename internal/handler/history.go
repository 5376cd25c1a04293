package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// History: one entry per reveal generation, most recent first.
func (h *RoomHandler) History(c echo.Context) error {
	entries, err := h.Svc.GetVoteHistory(c.Request().Context(), c.Param("code"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"history": entries})
}
