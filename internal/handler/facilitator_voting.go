package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planning-poker/internal/service"
)

// ----- DTOs -----

type startVotingReq struct {
	Story        *storyReq `json:"story"`
	TimerSeconds int       `json:"timerSeconds"`
}
type storyReq struct {
	Title string  `json:"title"`
	Link  *string `json:"link"`
}
type setEstimateReq struct {
	Value float64 `json:"value"`
}

// StartVoting: open a round, optionally appending a story and arming a
// timer.
func (h *RoomHandler) StartVoting(c echo.Context) error {
	var req startVotingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var story *service.StoryInput
	if req.Story != nil {
		story = &service.StoryInput{Title: req.Story.Title, Link: req.Story.Link}
	}
	snap, err := h.Svc.StartVoting(c.Request().Context(), c.Param("code"), story, req.TimerSeconds)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// RevealVotes: lock and expose the current votes.
func (h *RoomHandler) RevealVotes(c echo.Context) error {
	snap, err := h.Svc.RevealVotes(c.Request().Context(), c.Param("code"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// NextStory: advance the pointer, auto-filling the final estimate when
// none was set manually.
func (h *RoomHandler) NextStory(c echo.Context) error {
	snap, err := h.Svc.AdvanceToNextStory(c.Request().Context(), c.Param("code"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// SetEstimate: set a story's final estimate by hand.
func (h *RoomHandler) SetEstimate(c echo.Context) error {
	storyID, err := strconv.ParseInt(c.Param("storyId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid story id"})
	}
	var req setEstimateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	snap, err := h.Svc.SetFinalEstimate(c.Request().Context(), c.Param("code"), storyID, req.Value)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}
