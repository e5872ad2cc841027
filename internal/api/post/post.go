package post

import (
	"net/http"
	"novus-backend/internal/api"
	"novus-backend/internal/errors"
	"novus-backend/internal/middleware"
	"novus-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type PostHandler struct {
	posts      *service.PostService
	engagement *service.EngagementService
}

func NewPostHandler(posts *service.PostService, engagement *service.EngagementService) *PostHandler {
	return &PostHandler{posts: posts, engagement: engagement}
}

// postInput 从 multipart 表单或 JSON 中读取说明文字和媒体文件
func postInput(c *gin.Context) (service.PostInput, error) {
	var in service.PostInput
	if c.ContentType() == binding.MIMEJSON {
		var req struct {
			Caption *string `json:"caption"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return in, errors.Wrap(errors.ErrValidation, "invalid post data", err)
		}
		in.Caption = req.Caption
		return in, nil
	}
	if caption, ok := c.GetPostForm("caption"); ok {
		in.Caption = &caption
	}
	in.Files = api.MediaFiles(c, "media")
	return in, nil
}

func (h *PostHandler) GetAllPosts(c *gin.Context) {
	page, pageSize := api.Pagination(c)
	posts, total, err := h.posts.GetAllPosts(c.Request.Context(), page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{
		"results":  len(posts),
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"posts":    posts,
	}, "")
}

func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.GetPost(c.Request.Context(), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"post": post}, "")
}

func (h *PostHandler) GetLikedPosts(c *gin.Context) {
	posts, err := h.posts.GetLikedPosts(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"results": len(posts), "posts": posts}, "")
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	in, err := postInput(c)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	post, err := h.posts.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), in)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccessWithStatus(c, http.StatusCreated, gin.H{"post": post}, "")
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	in, err := postInput(c)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	post, err := h.posts.UpdatePost(c.Request.Context(), middleware.CurrentUserID(c), id, in)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"post": post}, "")
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleLike 点赞或取消点赞帖子
func (h *PostHandler) ToggleLike(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.engagement.ToggleLike(c.Request.Context(), service.EntityPost, id, middleware.CurrentUserID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, result, "")
}
