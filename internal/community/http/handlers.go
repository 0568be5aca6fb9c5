package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/verso-press/verso-backend/internal/auth"
	"github.com/verso-press/verso-backend/internal/community/domain"
	"github.com/verso-press/verso-backend/internal/community/service"
)

// feedScope reads the optional newsletter scope from the query string. An
// absent parameter means the general feed, which is an explicit null scope,
// not "all posts".
func feedScope(c *gin.Context) *string {
	if id := strings.TrimSpace(c.Query("newsletter_id")); id != "" {
		return &id
	}
	return nil
}

// ListPosts returns the current result set for one feed.
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.board.Feed(c.Request.Context(), feedScope(c))
	if err != nil {
		h.log.Error().Err(err).Msg("community: list posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CreatePost publishes a new post into the active scope, optionally tagged
// as a reply.
func (h *Handler) CreatePost(c *gin.Context) {
	uid := auth.UserFirebaseUID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var body struct {
		Content string           `json:"content" binding:"required"`
		ReplyTo *domain.ReplyRef `json:"reply_to,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	post, err := h.board.CreatePost(c.Request.Context(), service.CreatePostInput{
		Author:  service.Author{UID: uid, DisplayName: auth.UserDisplayName(c)},
		Scope:   feedScope(c),
		Content: body.Content,
		ReplyTo: body.ReplyTo,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyContent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "post content is empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// UpdatePost overwrites a post's content inside the edit window.
func (h *Handler) UpdatePost(c *gin.Context) {
	uid := auth.UserFirebaseUID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var body struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	err := h.board.UpdatePost(c.Request.Context(), uid, c.Param("id"), body.Content)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, domain.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, domain.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "post content is empty"})
	case errors.Is(err, domain.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author may edit a post"})
	case errors.Is(err, domain.ErrEditWindowElapsed):
		c.JSON(http.StatusForbidden, gin.H{"error": "failed to update. You might be outside the 3-minute edit window."})
	default:
		// Opaque store failure: keep the window hint, it is the most likely
		// cause the caller can act on.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update. You might be outside the 3-minute edit window."})
	}
}
