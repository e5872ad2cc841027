package post

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册 /posts 下的路由，全部需要登录
func RegisterRoutes(r *gin.RouterGroup, posts *PostHandler, comments *CommentHandler, protected gin.HandlerFunc) {
	g := r.Group("/posts", protected)
	g.GET("", posts.GetAllPosts)
	g.POST("", posts.CreatePost)
	g.GET("/liked-posts", posts.GetLikedPosts)

	g.GET("/comments/:id", comments.GetComment)
	g.PATCH("/comments/:id", comments.UpdateComment)
	g.DELETE("/comments/:id", comments.DeleteComment)
	g.PATCH("/comments/:id/like", comments.ToggleLike)

	g.GET("/:id", posts.GetPost)
	g.PATCH("/:id", posts.UpdatePost)
	g.DELETE("/:id", posts.DeletePost)
	g.PATCH("/:id/like", posts.ToggleLike)
	g.GET("/:id/comments", comments.GetPostComments)
	g.POST("/:id/comments", comments.CreateComment)
	g.POST("/:id/comments/:parentCommentId/replies", comments.CreateComment)
}
