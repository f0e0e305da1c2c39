// internal/handlers/stream.go

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventops/doorprize-backend/internal/sse"
)

// pingInterval matches the frontend's idle-detection window.
const pingInterval = 25 * time.Second

// WinnersSnapshotter provides the set of participant ids that have ever
// won, used by clients reconciling state before they subscribe.
type WinnersSnapshotter interface {
	WonParticipantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StreamHandler serves the live event stream and the winners snapshot.
type StreamHandler struct {
	hub      *sse.Hub
	snapshot WinnersSnapshotter
	ping     time.Duration
}

func NewStreamHandler(hub *sse.Hub, snapshot WinnersSnapshotter) *StreamHandler {
	return &StreamHandler{hub: hub, snapshot: snapshot, ping: pingInterval}
}

// Events handles GET /draws/events: a long-lived text/event-stream
// delivering draw_completed and ping events, one JSON object per data
// frame. The subscription is torn down when the client disconnects.
func (h *StreamHandler) Events(c *gin.Context) {
	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	if err := writeEvent(c.Writer, sse.Hello()); err != nil {
		return
	}
	c.Writer.Flush()

	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				// dropped by the hub
				return
			}
			if err := writeEvent(c.Writer, ev); err != nil {
				return
			}
			c.Writer.Flush()
		case <-ticker.C:
			if err := writeEvent(c.Writer, sse.Ping()); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// writeEvent frames one event as a newline-terminated `data:` block.
func writeEvent(w io.Writer, ev sse.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

// WinnersSnapshot handles GET /winners/snapshot
func (h *StreamHandler) WinnersSnapshot(c *gin.Context) {
	ids, err := h.snapshot.WonParticipantIDs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch winners snapshot"})
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	c.JSON(http.StatusOK, gin.H{"wonIds": ids})
}
