package user

import (
	"mime/multipart"
	"net/http"
	"novus-backend/internal/api"
	"novus-backend/internal/errors"
	"novus-backend/internal/middleware"
	"novus-backend/internal/service"
	"novus-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	users      *service.UserService
	engagement *service.EngagementService
	uploader   *service.MediaUploader
}

func NewUserHandler(users *service.UserService, engagement *service.EngagementService, uploader *service.MediaUploader) *UserHandler {
	return &UserHandler{users: users, engagement: engagement, uploader: uploader}
}

// GetMe 返回当前登录用户
func (h *UserHandler) GetMe(c *gin.Context) {
	errors.HandleSuccess(c, gin.H{"user": middleware.CurrentUser(c)}, "")
}

// UpdateMe 修改姓名、简介和头像，不能修改密码
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		FullName        *string `form:"fullName" json:"fullName"`
		Bio             *string `form:"bio" json:"bio"`
		Password        string  `form:"password" json:"password"`
		PasswordConfirm string  `form:"passwordConfirm" json:"passwordConfirm"`
	}
	if err := c.ShouldBind(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid request data", err))
		return
	}
	if req.Password != "" || req.PasswordConfirm != "" {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "This route is not for password updates. Please use /updateMyPassword."))
		return
	}

	userID := middleware.CurrentUserID(c)
	update := service.ProfileUpdate{FullName: req.FullName, Bio: req.Bio}
	if photo, err := c.FormFile("photo"); err == nil {
		urls, err := h.uploader.Upload(c.Request.Context(), "users", userID, []*multipart.FileHeader{photo})
		if err != nil {
			util.Logger.Warn("头像上传失败", zap.String("filename", photo.Filename), zap.Error(err))
			errors.HandleError(c, err)
			return
		}
		update.ProfileImage = &urls[0]
	}

	user, err := h.users.UpdateMe(c.Request.Context(), userID, update)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"user": user}, "")
}

// DeleteMe 停用当前账户
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.users.DeactivateMe(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUsers 分页列出用户，total 为过滤拉黑用户之前的总数
func (h *UserHandler) GetUsers(c *gin.Context) {
	page, pageSize := api.Pagination(c)
	users, total, err := h.users.GetUsers(c.Request.Context(), middleware.CurrentUser(c), page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{
		"results":  len(users),
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"users":    users,
	}, "")
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	profile, err := h.users.GetProfile(c.Request.Context(), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"user": profile}, "")
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	followers, err := h.users.GetFollowers(c.Request.Context(), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"results": len(followers), "followers": followers}, "")
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	following, err := h.users.GetFollowing(c.Request.Context(), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"results": len(following), "following": following}, "")
}

// SearchConnections 按姓名或用户名搜索
func (h *UserHandler) SearchConnections(c *gin.Context) {
	page, pageSize := api.Pagination(c)
	users, total, err := h.users.SearchConnections(c.Request.Context(), middleware.CurrentUser(c), c.Query("q"), page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"results": len(users), "total": total, "users": users}, "")
}

func (h *UserHandler) GetBlockedUsers(c *gin.Context) {
	blocked, err := h.users.GetBlockedUsers(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"results": len(blocked), "blockedUsers": blocked}, "")
}

// ToggleFollow 关注或取消关注
func (h *UserHandler) ToggleFollow(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.engagement.ToggleFollow(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, result, "")
}

// ToggleBlock 拉黑或取消拉黑
func (h *UserHandler) ToggleBlock(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	blocked, err := h.engagement.ToggleBlock(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"blocked": blocked}, "")
}
