package chat

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册 /chats 下的路由，全部需要登录
func RegisterRoutes(r *gin.RouterGroup, chats *ChatHandler, protected gin.HandlerFunc) {
	g := r.Group("/chats", protected)
	g.POST("", chats.CreateChat)
	g.GET("", chats.GetUserChats)
	g.POST("/messages", chats.SendMessage)
	g.GET("/messages/:chatId", chats.GetMessages)
	g.PATCH("/messages/:chatId/seen", chats.MarkSeen)
	g.GET("/:id", chats.GetChat)
	g.DELETE("/:chatId", chats.DeleteChat)
}
