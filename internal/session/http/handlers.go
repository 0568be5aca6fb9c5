package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verso-press/verso-backend/internal/auth"
	"github.com/verso-press/verso-backend/internal/authz"
	"github.com/verso-press/verso-backend/internal/session"
)

// SignIn exchanges a verified ID token for an established session. The same
// endpoint serves credential refreshes: the provider re-issues the token and
// the client posts it again.
func (h *Handler) SignIn(c *gin.Context) {
	var body struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id_token is required"})
		return
	}

	principal, err := h.verifier.Verify(c.Request.Context(), body.IDToken)
	if err != nil {
		// Bad credentials get an inline message, no retry.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.resolver.SignIn(c.Request.Context(), principal, body.IDToken)

	destination, err := h.flow.Establish(c.Request.Context(), principal)
	if err != nil {
		h.log.Error().Err(err).Str("uid", principal.UID).Msg("session: establish sign-in")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to establish session"})
		return
	}

	h.writeCookie(c)

	c.JSON(http.StatusOK, gin.H{
		"destination": destination,
		"principal":   principal,
	})
}

// Snapshot returns the resolver's current view: principal, role, loading.
// The view belongs to whoever signed in last; a caller authenticated as
// anyone else gets an empty session rather than that principal's identity.
func (h *Handler) Snapshot(c *gin.Context) {
	snap := h.resolver.Snapshot()
	if snap.Principal == nil || snap.Principal.UID != auth.UserFirebaseUID(c) {
		c.JSON(http.StatusOK, session.Snapshot{})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// SignOut tears the session down and clears the side-channel cookie.
func (h *Handler) SignOut(c *gin.Context) {
	h.resolver.SignOut(c.Request.Context())

	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"destination": authz.LoginPath})
}

func (h *Handler) writeCookie(c *gin.Context) {
	snap := h.resolver.Snapshot()
	if snap.Cookie == "" {
		// Minting failed; the resolver already logged it. The session still
		// works for subscribing consumers.
		return
	}
	maxAge := int(time.Until(snap.CookieExpires) / time.Second)
	c.SetCookie(h.cookie.Name, snap.Cookie, maxAge, "/", "", h.cookie.Secure, true)
}
