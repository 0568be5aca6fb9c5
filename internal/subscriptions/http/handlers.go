package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/auth"
	"github.com/verso-press/verso-backend/internal/live"
	newsletters "github.com/verso-press/verso-backend/internal/newsletters/domain"
	"github.com/verso-press/verso-backend/internal/subscriptions/domain"
	"github.com/verso-press/verso-backend/internal/subscriptions/service"
)

type Handler struct {
	subs *service.SubscriptionService
	bus  *live.Bus
	log  zerolog.Logger
}

func New(subs *service.SubscriptionService, bus *live.Bus, log zerolog.Logger) *Handler {
	return &Handler{subs: subs, bus: bus, log: log}
}

// List returns the caller's subscriptions with newsletter details joined.
func (h *Handler) List(c *gin.Context) {
	list, err := h.subs.List(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("subscriptions: list")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscriptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": list})
}

// Subscribe links the caller to a newsletter.
func (h *Handler) Subscribe(c *gin.Context) {
	var body struct {
		NewsletterID string `json:"newsletter_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "newsletter_id is required"})
		return
	}

	sub, err := h.subs.Subscribe(c.Request.Context(), auth.UserFirebaseUID(c), body.NewsletterID)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"subscription": sub})
	case errors.Is(err, newsletters.ErrNewsletterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "newsletter not found"})
	case errors.Is(err, domain.ErrAlreadySubscribed):
		c.JSON(http.StatusConflict, gin.H{"error": "already subscribed"})
	default:
		h.log.Error().Err(err).Msg("subscriptions: subscribe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
	}
}

// Unsubscribe deletes a subscription owned by the caller.
func (h *Handler) Unsubscribe(c *gin.Context) {
	err := h.subs.Unsubscribe(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
	case errors.Is(err, domain.ErrNotSubscriber):
		c.JSON(http.StatusForbidden, gin.H{"error": "subscription belongs to another user"})
	default:
		h.log.Error().Err(err).Msg("subscriptions: unsubscribe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe"})
	}
}
