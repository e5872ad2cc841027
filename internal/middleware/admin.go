package middleware

import (
	"novus-backend/internal/errors"
	"novus-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RestrictTo 只允许指定角色访问，必须放在 AuthMiddleware 之后
func RestrictTo(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "authentication required"))
			c.Abort()
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			util.Logger.Warn("角色无权访问",
				util.ID("user_id", user.ID),
				zap.String("role", user.Role),
				zap.String("path", c.Request.URL.Path))
			errors.HandleError(c, errors.New(errors.ErrForbidden, "You do not have permission to perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}
