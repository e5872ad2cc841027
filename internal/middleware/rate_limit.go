package middleware

import (
	"novus-backend/internal/errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端 IP 限制每小时的请求数
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	swept    time.Time
}

func NewRateLimiter(perHour int) *RateLimiter {
	if perHour <= 0 {
		perHour = 1000
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Hour / time.Duration(perHour)),
		burst:    perHour,
		idleTTL:  time.Hour,
	}
}

// Allow 判断 key 本次请求是否放行
func (l *RateLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.cleanup(now)
	return v.limiter.AllowN(now, 1)
}

// cleanup 每分钟最多一次，清理一小时内没有请求的访客
func (l *RateLimiter) cleanup(now time.Time) {
	if now.Sub(l.swept) < time.Minute {
		return
	}
	l.swept = now
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idleTTL {
			delete(l.visitors, key)
		}
	}
}

func RateLimitMiddleware(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			errors.HandleError(c, errors.New(errors.ErrTooManyRequests, "Too many requests from this IP, please try again in an hour!"))
			c.Abort()
			return
		}
		c.Next()
	}
}
