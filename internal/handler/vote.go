package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type submitVoteReq struct {
	// Value null (or absent) retracts the vote.
	Value *float64 `json:"value"`
}

// SubmitVote: record or retract the authenticated participant's vote.
func (h *RoomHandler) SubmitVote(c echo.Context) error {
	var req submitVoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	snap, err := h.Svc.SubmitVote(c.Request().Context(), c.Param("code"), participantName(c), req.Value)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}
