package middleware

import (
	"context"
	"novus-backend/internal/errors"
	"novus-backend/internal/model"
	"novus-backend/internal/util"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// 上下文中的键
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUser      = "user"
	ContextToken     = "token"
	ContextClaims    = "claims"
)

// Authenticator 校验令牌并返回令牌所属用户
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, *util.TokenClaims, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		token := extractToken(c)
		if token == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "You are not logged in! Please log in to get access."))
			c.Abort()
			return
		}

		user, claims, err := auth.Authenticate(ctx, token)
		if err != nil {
			util.Logger.Debug("认证失败",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			errors.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserEmail, user.Email)
		c.Set(ContextUser, user)
		c.Set(ContextToken, token)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// extractToken 依次从 Authorization 头、jwt cookie 和 token 查询参数中取令牌
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie("jwt"); err == nil && cookie != "" && cookie != "loggedout" {
		return cookie
	}
	return c.Query("token")
}

// CurrentUser 返回认证中间件放入上下文的用户
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(ContextUser); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID 返回当前用户ID，未认证时为 NilObjectID
func CurrentUserID(c *gin.Context) primitive.ObjectID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(primitive.ObjectID); ok {
			return id
		}
	}
	return primitive.NilObjectID
}

// CurrentToken 返回本次请求使用的令牌及其声明
func CurrentToken(c *gin.Context) (string, *util.TokenClaims) {
	token := c.GetString(ContextToken)
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*util.TokenClaims); ok {
			return token, claims
		}
	}
	return token, nil
}
