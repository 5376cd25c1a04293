package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planning-poker/internal/service"
)

// ----- DTOs -----

type addStoriesReq struct {
	Stories []storyReq `json:"stories"`
}
type reorderReq struct {
	OrderedIDs []int64 `json:"orderedIds"`
}

// AddStory: append one story to the queue.
func (h *RoomHandler) AddStory(c echo.Context) error {
	var req storyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	snap, err := h.Svc.AddStory(c.Request().Context(), c.Param("code"), service.StoryInput{Title: req.Title, Link: req.Link})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, snap)
}

// AddStories: bulk import, preserving payload order and auto-linking
// issue keys against the room's tracker URL.
func (h *RoomHandler) AddStories(c echo.Context) error {
	var req addStoriesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	inputs := make([]service.StoryInput, 0, len(req.Stories))
	for _, st := range req.Stories {
		inputs = append(inputs, service.StoryInput{Title: st.Title, Link: st.Link})
	}
	snap, err := h.Svc.AddStories(c.Request().Context(), c.Param("code"), inputs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, snap)
}

// EditStory: update title and link.
func (h *RoomHandler) EditStory(c echo.Context) error {
	storyID, err := strconv.ParseInt(c.Param("storyId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid story id"})
	}
	var req storyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	snap, err := h.Svc.EditStory(c.Request().Context(), c.Param("code"), storyID, service.StoryInput{Title: req.Title, Link: req.Link})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// DeleteStory: remove a story and compact the queue.
func (h *RoomHandler) DeleteStory(c echo.Context) error {
	storyID, err := strconv.ParseInt(c.Param("storyId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid story id"})
	}
	snap, err := h.Svc.DeleteStory(c.Request().Context(), c.Param("code"), storyID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// ReorderStories: rewrite the queue order atomically.
func (h *RoomHandler) ReorderStories(c echo.Context) error {
	var req reorderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	snap, err := h.Svc.ReorderStories(c.Request().Context(), c.Param("code"), req.OrderedIDs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}
