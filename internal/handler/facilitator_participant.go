package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type setVoterReq struct {
	IsVoter bool `json:"isVoter"`
}

// Promote: grant facilitator status to a participant.
func (h *RoomHandler) Promote(c echo.Context) error {
	snap, err := h.Svc.PromoteParticipant(c.Request().Context(), c.Param("code"), c.Param("name"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// SetVoter: toggle a participant between voter and observer.
func (h *RoomHandler) SetVoter(c echo.Context) error {
	var req setVoterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	snap, err := h.Svc.SetVoter(c.Request().Context(), c.Param("code"), c.Param("name"), req.IsVoter)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Kick: remove a non-facilitator participant and their live vote.
func (h *RoomHandler) Kick(c echo.Context) error {
	snap, err := h.Svc.KickParticipant(c.Request().Context(), c.Param("code"), c.Param("name"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}
