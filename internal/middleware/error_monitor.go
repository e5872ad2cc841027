package middleware

import (
	"novus-backend/internal/errors"
	"novus-backend/internal/metrics"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorMonitorMiddleware 把处理器通过 c.Error 记录的错误写入分析器和指标
func ErrorMonitorMiddleware(analytics *errors.ErrorAnalytics, collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		userID := ""
		if id := CurrentUserID(c); !id.IsZero() {
			userID = id.Hex()
		}
		for _, e := range c.Errors {
			traced := errors.NewTracedError(e.Err, errors.ErrorContext{
				RequestID: c.GetString(ContextRequestID),
				UserID:    userID,
				Path:      c.FullPath(),
				Method:    c.Request.Method,
				Timestamp: time.Now(),
			})
			analytics.Record(traced)
			collector.RecordError(strconv.Itoa(int(traced.Code)))

			fields := []zap.Field{
				zap.Int("error_code", int(traced.Code)),
				zap.String("error_message", traced.Message),
				zap.String("request_id", traced.Context.RequestID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			}
			if traced.Err != nil {
				fields = append(fields, zap.Error(traced.Err))
			}
			if traced.Code < errors.ErrUnauthorized {
				zap.L().Error("请求处理错误", append(fields, zap.String("stack", traced.Stack))...)
			} else {
				zap.L().Info("请求被拒绝", fields...)
			}
		}
	}
}
