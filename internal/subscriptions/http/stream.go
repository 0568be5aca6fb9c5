package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verso-press/verso-backend/internal/auth"
	"github.com/verso-press/verso-backend/internal/subscriptions/repository"
)

// StreamSubscriptions streams the caller's subscription list using
// Server-Sent Events (SSE). Each subscribe or unsubscribe triggers a fresh
// query so the client always receives the full current list, never a diff.
func (h *Handler) StreamSubscriptions(c *gin.Context) {
	uid := auth.UserFirebaseUID(c)
	ctx := c.Request.Context()

	sub, err := h.bus.Subscribe(ctx, repository.ChannelFor(uid))
	if err != nil {
		h.log.Error().Err(err).Msg("subscriptions: stream subscribe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open subscription stream"})
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

	// Initial snapshot so the client renders before the first change.
	if !h.sendSubscriptions(c, flusher, uid, "initial") {
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case _, open := <-sub.Events():
			if !open {
				return
			}
			if !h.sendSubscriptions(c, flusher, uid, "update") {
				return
			}
		}
	}
}

func (h *Handler) sendSubscriptions(c *gin.Context, flusher http.Flusher, uid, event string) bool {
	list, err := h.subs.List(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Msg("subscriptions: stream query")
		return false
	}
	data, _ := json.Marshal(gin.H{"subscriptions": list})
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(data))
	flusher.Flush()
	return true
}
