package admin

import (
	"novus-backend/internal/middleware"
	"novus-backend/internal/model"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册 /admin 下的路由，只有管理员可以访问
func RegisterRoutes(r *gin.RouterGroup, h *AdminHandler, protected gin.HandlerFunc) {
	g := r.Group("/admin", protected, middleware.RestrictTo(model.RoleAdmin))
	g.GET("/stats", h.GetSystemStats)
	g.GET("/users", h.GetUsers)
	g.PATCH("/users/:id/role", h.UpdateUserRole)
}
