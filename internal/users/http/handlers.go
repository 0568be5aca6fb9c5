package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/auth"
	"github.com/verso-press/verso-backend/internal/live"
	"github.com/verso-press/verso-backend/internal/users/domain"
	"github.com/verso-press/verso-backend/internal/users/service"
)

type Handler struct {
	access *service.AccessService
	bus    *live.Bus
	log    zerolog.Logger
}

func New(access *service.AccessService, bus *live.Bus, log zerolog.Logger) *Handler {
	return &Handler{access: access, bus: bus, log: log}
}

// RequestAdmin flags the caller's profile as awaiting a role upgrade.
func (h *Handler) RequestAdmin(c *gin.Context) {
	if err := h.access.RequestAdmin(c.Request.Context(), auth.UserFirebaseUID(c)); err != nil {
		h.log.Error().Err(err).Msg("users: admin request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to request admin access"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListUsers returns every profile for the super-admin console, newest first.
func (h *Handler) ListUsers(c *gin.Context) {
	profiles, err := h.access.ListProfiles(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("users: list")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

// SetRole assigns a role to one user, clearing any pending upgrade request.
func (h *Handler) SetRole(c *gin.Context) {
	var body struct {
		Role domain.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	if err := h.access.SetRole(c.Request.Context(), c.Param("uid"), body.Role); err != nil {
		h.log.Error().Err(err).Str("uid", c.Param("uid")).Msg("users: set role")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to update role"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RejectRequest clears a pending upgrade request without touching the role.
func (h *Handler) RejectRequest(c *gin.Context) {
	if err := h.access.RejectRequest(c.Request.Context(), c.Param("uid")); err != nil {
		h.log.Error().Err(err).Str("uid", c.Param("uid")).Msg("users: reject request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
