package http

import "github.com/gin-gonic/gin"

// Register mounts the subscription routes; the caller attaches the
// authenticated-tier gate.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/subscriptions", h.List)
	rg.GET("/subscriptions/stream", h.StreamSubscriptions)
	rg.POST("/subscriptions", h.Subscribe)
	rg.DELETE("/subscriptions/:id", h.Unsubscribe)
}
