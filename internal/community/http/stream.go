package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verso-press/verso-backend/internal/community/repository"
)

// StreamFeed streams the live discussion feed for one scope using
// Server-Sent Events (SSE). Each change to the feed triggers a fresh query
// so the client always receives the full current result set, never a diff.
func (h *Handler) StreamFeed(c *gin.Context) {
	scope := feedScope(c)
	ctx := c.Request.Context()

	sub, err := h.bus.Subscribe(ctx, repository.FeedChannelFor(scope))
	if err != nil {
		h.log.Error().Err(err).Msg("community: feed subscribe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open feed stream"})
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
	if !h.sendFeed(c, flusher, scope, "initial") {
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
			if !h.sendFeed(c, flusher, scope, "update") {
				return
			}
		}
	}
}

func (h *Handler) sendFeed(c *gin.Context, flusher http.Flusher, scope *string, event string) bool {
	posts, err := h.board.Feed(c.Request.Context(), scope)
	if err != nil {
		h.log.Error().Err(err).Msg("community: feed stream query")
		return false
	}
	data, _ := json.Marshal(gin.H{"posts": posts})
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(data))
	flusher.Flush()
	return true
}
