package post

import (
	"net/http"
	"novus-backend/internal/api"
	"novus-backend/internal/errors"
	"novus-backend/internal/middleware"
	"novus-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommentHandler struct {
	comments   *service.CommentService
	engagement *service.EngagementService
}

func NewCommentHandler(comments *service.CommentService, engagement *service.EngagementService) *CommentHandler {
	return &CommentHandler{comments: comments, engagement: engagement}
}

// GetPostComments 返回评论树，results 为顶层评论数
func (h *CommentHandler) GetPostComments(c *gin.Context) {
	postID, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	tree, err := h.comments.GetPostComments(c.Request.Context(), postID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"results": len(tree), "comments": tree}, "")
}

// CreateComment 创建评论；parentComment 可以来自请求体或路径
func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Text          string `json:"text" binding:"required"`
		ParentComment string `json:"parentComment" binding:"omitempty,objectid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid comment data", err))
		return
	}

	var parent *primitive.ObjectID
	switch {
	case c.Param("parentCommentId") != "":
		id, ok := api.ObjectIDParam(c, "parentCommentId")
		if !ok {
			return
		}
		parent = &id
	case req.ParentComment != "":
		id, _ := primitive.ObjectIDFromHex(req.ParentComment)
		parent = &id
	}

	comment, err := h.comments.CreateComment(c.Request.Context(), middleware.CurrentUserID(c), postID, parent, req.Text)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccessWithStatus(c, http.StatusCreated, gin.H{"comment": comment}, "")
}

func (h *CommentHandler) GetComment(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	comment, err := h.comments.GetComment(c.Request.Context(), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"comment": comment}, "")
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid comment data", err))
		return
	}
	comment, err := h.comments.UpdateComment(c.Request.Context(), middleware.CurrentUserID(c), id, req.Text)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"comment": comment}, "")
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleLike 点赞或取消点赞评论，不产生通知
func (h *CommentHandler) ToggleLike(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.engagement.ToggleLike(c.Request.Context(), service.EntityComment, id, middleware.CurrentUserID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, result, "")
}
