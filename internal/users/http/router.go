package http

import "github.com/gin-gonic/gin"

// RegisterUser mounts the standard-user surface; the caller attaches the
// user-tier gate.
func (h *Handler) RegisterUser(rg *gin.RouterGroup) {
	rg.POST("/auth/admin-request", h.RequestAdmin)
}

// RegisterSuperAdmin mounts the user console; the caller attaches the
// super-admin-tier gate.
func (h *Handler) RegisterSuperAdmin(rg *gin.RouterGroup) {
	rg.GET("/super-admin/users", h.ListUsers)
	rg.GET("/super-admin/users/stream", h.StreamUsers)
	rg.POST("/super-admin/users/:uid/role", h.SetRole)
	rg.POST("/super-admin/users/:uid/reject", h.RejectRequest)
}
