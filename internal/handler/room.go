package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planning-poker/internal/service"
	"github.com/iliyamo/planning-poker/internal/utils"
)

// RoomHandler bundles dependencies for the room lifecycle endpoints.
type RoomHandler struct {
	Svc           *service.RoomService
	JWTSecret     string
	SessionTTLMin int
}

func NewRoomHandler(svc *service.RoomService, jwtSecret string, sessionTTLMin int) *RoomHandler {
	return &RoomHandler{Svc: svc, JWTSecret: jwtSecret, SessionTTLMin: sessionTTLMin}
}

// ----- DTOs -----

type createRoomReq struct {
	Name            string  `json:"name"`
	IssueTrackerURL *string `json:"issueTrackerUrl"`
}
type joinRoomReq struct {
	Name string `json:"name"`
}

type sessionPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Create: create a room, register the creator as facilitator, and hand
// back the snapshot plus a session token.
func (h *RoomHandler) Create(c echo.Context) error {
	var req createRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	snap, err := h.Svc.CreateRoom(c.Request().Context(), req.Name, req.IssueTrackerURL)
	if err != nil {
		return serviceError(c, err)
	}

	tok, err := utils.NewParticipantToken(h.JWTSecret, snap.Code, req.Name, h.SessionTTLMin)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"room":    snap,
		"session": sessionPart{Token: tok.Token, Expires: tok.Exp},
	})
}

// Join: register (or merge) a participant and hand back a session
// token scoped to this room.
func (h *RoomHandler) Join(c echo.Context) error {
	code := utils.NormalizeRoomCode(c.Param("code"))
	if !utils.ValidRoomCode(code) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room code"})
	}
	var req joinRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	snap, err := h.Svc.Join(c.Request().Context(), code, req.Name)
	if err != nil {
		return serviceError(c, err)
	}

	tok, err := utils.NewParticipantToken(h.JWTSecret, code, req.Name, h.SessionTTLMin)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room":    snap,
		"session": sessionPart{Token: tok.Token, Expires: tok.Exp},
	})
}

// GetState: one consistent snapshot of the room.
func (h *RoomHandler) GetState(c echo.Context) error {
	snap, err := h.Svc.GetRoomState(c.Request().Context(), c.Param("code"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}
