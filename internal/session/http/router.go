package http

import "github.com/gin-gonic/gin"

// Register mounts the session routes. Sign-in is the public entry point;
// reading the snapshot requires a verified caller so the resolver's
// principal is never served to strangers.
func (h *Handler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.POST("/session", h.SignIn)
	rg.GET("/session", requireAuth, h.Snapshot)
	rg.DELETE("/session", h.SignOut)
}
