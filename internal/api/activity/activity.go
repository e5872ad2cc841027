package activity

import (
	"novus-backend/internal/errors"
	"novus-backend/internal/middleware"
	"novus-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activities *service.ActivityService
}

func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// GetActivity 返回发给当前用户的通知，最新的在前
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	activities, err := h.activities.GetActivity(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"results": len(activities), "activities": activities}, "")
}

// RegisterRoutes 注册 /activity 路由
func RegisterRoutes(r *gin.RouterGroup, h *ActivityHandler, protected gin.HandlerFunc) {
	r.GET("/activity", protected, h.GetActivity)
}
