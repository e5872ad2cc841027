package user

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册 /users 下的路由，protected 之后的路由需要登录
func RegisterRoutes(r *gin.RouterGroup, auth *AuthHandler, users *UserHandler, protected gin.HandlerFunc) {
	g := r.Group("/users")
	g.POST("/signup", auth.Signup)
	g.POST("/login", auth.Login)
	g.POST("/forgotPassword", auth.ForgotPassword)
	g.PATCH("/resetPassword/:token", auth.ResetPassword)

	g.Use(protected)
	g.GET("/logout", auth.Logout)
	g.PATCH("/updateMyPassword", auth.UpdatePassword)
	g.GET("/me", users.GetMe)
	g.PATCH("/updateMe", users.UpdateMe)
	g.DELETE("/deleteMe", users.DeleteMe)

	g.GET("", users.GetUsers)
	g.GET("/search/connections", users.SearchConnections)
	g.GET("/blocked-users", users.GetBlockedUsers)
	g.GET("/following/:id", users.GetFollowing)
	g.GET("/followers/:id", users.GetFollowers)
	g.PATCH("/follow/:id", users.ToggleFollow)
	g.PATCH("/block/:id", users.ToggleBlock)
	g.GET("/:id", users.GetUser)
}
