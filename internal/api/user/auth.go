package user

import (
	"context"
	"net/http"
	"novus-backend/config"
	"novus-backend/internal/errors"
	"novus-backend/internal/middleware"
	"novus-backend/internal/model"
	"novus-backend/internal/service"
	"novus-backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AccountService 是认证处理器依赖的账户操作
type AccountService interface {
	Signup(ctx context.Context, in service.SignupInput) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(token string, expiresAt time.Time)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) (*model.User, string, error)
	UpdatePassword(ctx context.Context, userID primitive.ObjectID, current, password, confirm string) (*model.User, string, error)
}

// AuthHandler 处理与认证相关的HTTP请求
type AuthHandler struct {
	accounts AccountService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例
func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts}
}

// Signup 处理用户注册请求
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		FullName        string `json:"fullName" binding:"required"`
		UserName        string `json:"userName" binding:"required,username"`
		Email           string `json:"email" binding:"required,email"`
		Password        string `json:"password" binding:"required,min=8"`
		PasswordConfirm string `json:"passwordConfirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Logger.Warn("注册失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid signup data", err))
		return
	}

	user, token, err := h.accounts.Signup(c.Request.Context(), service.SignupInput{
		FullName:        req.FullName,
		UserName:        req.UserName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.PasswordConfirm,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	sendToken(c, http.StatusCreated, user, token)
}

// Login 处理用户登录请求
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "please provide email and password", err))
		return
	}

	user, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	sendToken(c, http.StatusOK, user, token)
}

// Logout 令牌加入黑名单并清除 cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	token, claims := middleware.CurrentToken(c)
	var expiresAt time.Time
	if claims != nil {
		expiresAt = claims.ExpiresAt
	}
	h.accounts.Logout(token, expiresAt)
	c.SetCookie("jwt", "loggedout", 10, "/", "", false, true)
	errors.HandleSuccess(c, nil, "logged out")
}

// ForgotPassword 发送重置密码邮件
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid email", err))
		return
	}
	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "Token sent to email!")
}

// ResetPassword 使用邮件中的令牌重置密码
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Password        string `json:"password" binding:"required"`
		PasswordConfirm string `json:"passwordConfirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid request data", err))
		return
	}
	user, token, err := h.accounts.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	sendToken(c, http.StatusOK, user, token)
}

// UpdatePassword 已登录用户修改密码
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req struct {
		PasswordCurrent string `json:"passwordCurrent" binding:"required"`
		Password        string `json:"password" binding:"required"`
		PasswordConfirm string `json:"passwordConfirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid request data", err))
		return
	}
	user, token, err := h.accounts.UpdatePassword(c.Request.Context(), middleware.CurrentUserID(c), req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	sendToken(c, http.StatusOK, user, token)
}

// sendToken 写入 jwt cookie 并返回令牌和用户
func sendToken(c *gin.Context, status int, user *model.User, token string) {
	maxAge := int(config.AppConfig.JWTExpiresIn / time.Second)
	secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
	c.SetCookie("jwt", token, maxAge, "/", "", secure, true)
	errors.HandleSuccessWithStatus(c, status, gin.H{
		"token": token,
		"user":  user,
	}, "")
}
