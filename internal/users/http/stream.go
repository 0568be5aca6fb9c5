package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verso-press/verso-backend/internal/users/repository"
)

// StreamUsers pushes the super-admin user list over Server-Sent Events
// (SSE). Every profile write triggers a fresh full listing.
func (h *Handler) StreamUsers(c *gin.Context) {
	ctx := c.Request.Context()

	sub, err := h.bus.Subscribe(ctx, repository.ProfileChannel)
	if err != nil {
		h.log.Error().Err(err).Msg("users: stream subscribe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open user stream"})
		return
	}
	defer sub.Close()

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	if !h.sendUsers(c, flusher, "initial") {
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case _, open := <-sub.Events():
			if !open {
				return
			}
			if !h.sendUsers(c, flusher, "update") {
				return
			}
		}
	}
}

func (h *Handler) sendUsers(c *gin.Context, flusher http.Flusher, event string) bool {
	profiles, err := h.access.ListProfiles(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("users: stream query")
		return false
	}
	data, _ := json.Marshal(gin.H{"users": profiles})
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(data))
	flusher.Flush()
	return true
}
