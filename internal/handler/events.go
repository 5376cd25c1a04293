package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planning-poker/internal/model"
	"github.com/iliyamo/planning-poker/internal/realtime"
	"github.com/iliyamo/planning-poker/internal/service"
)

// EventsHandler streams room snapshots over Server-Sent Events.  Each
// connection gets its own watcher; change triggers are debounced and
// every delivery is a full snapshot, so a dropped event costs nothing
// once the next one arrives.
type EventsHandler struct {
	Svc      *service.RoomService
	Notifier realtime.Notifier
	Debounce time.Duration
}

func NewEventsHandler(svc *service.RoomService, notifier realtime.Notifier, debounce time.Duration) *EventsHandler {
	return &EventsHandler{Svc: svc, Notifier: notifier, Debounce: debounce}
}

const keepAliveInterval = 25 * time.Second

// Stream: subscribe the authenticated participant to the room's change
// stream.  The stream ends when the client disconnects or when the
// participant is kicked.
func (h *EventsHandler) Stream(c echo.Context) error {
	code := c.Param("code")
	name := participantName(c)

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "streaming unsupported"})
	}

	ctx := c.Request().Context()

	// Buffered so a slow write never blocks the watcher's timer
	// goroutine; intermediate snapshots may be dropped, which is fine
	// because every snapshot is complete.
	snapshots := make(chan *model.RoomSnapshot, 4)
	kicked := make(chan struct{}, 1)

	watcher := realtime.NewWatcher(code, name, h.Svc, h.Notifier, h.Debounce)
	watcher.OnUpdate = func(snap *model.RoomSnapshot) {
		select {
		case snapshots <- snap:
		default:
		}
	}
	watcher.OnKicked = func() {
		select {
		case kicked <- struct{}{}:
		default:
		}
	}
	if err := watcher.Start(ctx); err != nil {
		return serviceError(c, err)
	}
	defer watcher.Close()

	w.WriteHeader(http.StatusOK)
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-kicked:
			fmt.Fprint(w, "event: kicked\ndata: {}\n\n")
			flusher.Flush()
			return nil
		case snap := <-snapshots:
			payload, err := json.Marshal(snap)
			if err != nil {
				c.Logger().Errorf("events: marshal snapshot: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: room\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
