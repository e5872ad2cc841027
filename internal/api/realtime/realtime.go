package realtime

import (
	"novus-backend/internal/middleware"
	"novus-backend/internal/realtime"
	"novus-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *realtime.Hub
	upgrader *websocket.Upgrader
}

func NewHandler(hub *realtime.Hub, allowedOrigins []string) *Handler {
	return &Handler{hub: hub, upgrader: realtime.NewUpgrader(allowedOrigins)}
}

// Connect 把请求升级为 websocket 连接，阻塞到连接关闭
func (h *Handler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		util.Logger.Warn("websocket 升级失败", util.Error(err))
		return
	}
	realtime.NewClient(h.hub, conn, middleware.CurrentUserID(c)).Serve()
}

// RegisterRoutes 注册 /ws 路由
func RegisterRoutes(r gin.IRouter, h *Handler, protected gin.HandlerFunc) {
	r.GET("/ws", protected, h.Connect)
}
