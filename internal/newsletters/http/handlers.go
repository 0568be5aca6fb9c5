package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/auth"
	"github.com/verso-press/verso-backend/internal/newsletters/domain"
	"github.com/verso-press/verso-backend/internal/newsletters/service"
)

type Handler struct {
	newsletters *service.NewsletterService
	log         zerolog.Logger
}

func New(newsletters *service.NewsletterService, log zerolog.Logger) *Handler {
	return &Handler{newsletters: newsletters, log: log}
}

// PublishedFeed returns the public newsletter list.
func (h *Handler) PublishedFeed(c *gin.Context) {
	feed, err := h.newsletters.PublishedFeed(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("newsletters: published feed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load newsletters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"newsletters": feed})
}

// PublishedDetail returns one public issue by slug. Drafts and unknown slugs
// are both 404; the distinction is not surfaced.
func (h *Handler) PublishedDetail(c *gin.Context) {
	n, err := h.newsletters.PublishedDetail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrNewsletterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "newsletter not found"})
			return
		}
		h.log.Error().Err(err).Msg("newsletters: published detail")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load newsletter"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"newsletter": n})
}

// AuthorFeed lists the calling admin's issues, drafts included.
func (h *Handler) AuthorFeed(c *gin.Context) {
	feed, err := h.newsletters.AuthorFeed(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("newsletters: author feed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load newsletters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"newsletters": feed})
}

// Create adds a new issue owned by the caller.
func (h *Handler) Create(c *gin.Context) {
	var in service.EditInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	n, err := h.newsletters.Create(c.Request.Context(), auth.UserFirebaseUID(c), in)
	if err != nil {
		h.writeError(c, err, "failed to create newsletter")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"newsletter": n})
}

// Update overwrites the editable fields of an owned issue.
func (h *Handler) Update(c *gin.Context) {
	var in service.EditInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	n, err := h.newsletters.Update(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err, "failed to update newsletter")
		return
	}
	c.JSON(http.StatusOK, gin.H{"newsletter": n})
}

// SetStatus toggles publication of an owned issue.
func (h *Handler) SetStatus(c *gin.Context) {
	var body struct {
		Status domain.Status `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	n, err := h.newsletters.SetStatus(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), body.Status)
	if err != nil {
		h.writeError(c, err, "failed to change newsletter status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"newsletter": n})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNewsletterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "newsletter not found"})
	case errors.Is(err, domain.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "newsletter belongs to another author"})
	case errors.Is(err, domain.ErrEmptyTitle):
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
	case errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be draft or published"})
	case errors.Is(err, domain.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "slug already in use"})
	default:
		h.log.Error().Err(err).Msg("newsletters: " + fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
