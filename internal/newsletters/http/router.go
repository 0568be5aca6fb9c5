package http

import "github.com/gin-gonic/gin"

// RegisterPublic mounts the read-only surface available to everyone.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/newsletters", h.PublishedFeed)
	rg.GET("/newsletters/:slug", h.PublishedDetail)
}

// RegisterAdmin mounts the authoring surface; the caller attaches the
// admin-tier gate.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/admin/newsletters", h.AuthorFeed)
	rg.POST("/admin/newsletters", h.Create)
	rg.PUT("/admin/newsletters/:id", h.Update)
	rg.PUT("/admin/newsletters/:id/status", h.SetStatus)
}
