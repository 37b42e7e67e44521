package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/vaibh/video-analyzer/internal/queue"
	"github.com/vaibh/video-analyzer/internal/types"
)

// ProgressHandler pushes job progress snapshots over a WebSocket so clients
// don't have to poll
type ProgressHandler struct {
	store *queue.Store
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(store *queue.Store) *ProgressHandler {
	return &ProgressHandler{store: store}
}

// Handle streams snapshots for the job in the :id route param. The connection
// closes after the terminal snapshot is delivered.
func (h *ProgressHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")

	view, err := h.store.View(jobID)
	if err != nil {
		c.WriteMessage(websocket.TextMessage, []byte(`{"error":"job not found"}`))
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		payload, err := json.Marshal(view)
		if err != nil {
			log.Printf("Failed to marshal progress for job %s: %v", jobID, err)
			return
		}
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			// Client went away; the job keeps running
			return
		}

		if view.Status == types.StatusCompleted || view.Status == types.StatusFailed {
			return
		}

		<-ticker.C

		view, err = h.store.View(jobID)
		if err != nil {
			return
		}
	}
}
