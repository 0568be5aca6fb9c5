package http

import "github.com/gin-gonic/gin"

// Register mounts the discussion board routes. Reads and the stream stay
// open to signed-out visitors; writes require an authenticated caller and
// are additionally rate limited.
func (h *Handler) Register(rg *gin.RouterGroup, requireAuth, limitWrites gin.HandlerFunc) {
	rg.GET("/community/posts", h.ListPosts)
	rg.GET("/community/posts/stream", h.StreamFeed)
	rg.POST("/community/posts", requireAuth, limitWrites, h.CreatePost)
	rg.PUT("/community/posts/:id", requireAuth, h.UpdatePost)
}
