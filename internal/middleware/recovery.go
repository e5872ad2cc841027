package middleware

import (
	"novus-backend/internal/errors"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				// 记录堆栈信息
				stack := string(debug.Stack())
				zap.L().Error("发生panic",
					zap.Any("error", r),
					zap.String("request_id", c.GetString(ContextRequestID)),
					zap.String("stack", stack))

				errors.HandleError(c, errors.New(errors.ErrInternal, "Something went very wrong!"))
				c.Abort()
			}
		}()
		c.Next()
	}
}
