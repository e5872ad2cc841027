package media

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"novus-backend/internal/api"
	"novus-backend/internal/errors"
	"novus-backend/internal/storage"
	"novus-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Opener 按 id 打开保存在数据库中的媒体文件
type Opener interface {
	Open(ctx context.Context, id primitive.ObjectID) (io.ReadCloser, string, error)
}

type MediaHandler struct {
	files Opener
}

func NewMediaHandler(files Opener) *MediaHandler {
	return &MediaHandler{files: files}
}

func (h *MediaHandler) GetMedia(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	file, contentType, err := h.files.Open(c.Request.Context(), id)
	if err != nil {
		if stderrors.Is(err, storage.ErrFileNotFound) {
			errors.HandleError(c, errors.New(errors.ErrResourceNotFound, "media not found"))
			return
		}
		util.Logger.Error("读取媒体文件失败", util.ID("file_id", id), util.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrStorage, "failed to read media", err))
		return
	}
	defer file.Close()

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, -1, contentType, file, nil)
}

// RegisterRoutes 注册 /media 路由，媒体地址会直接出现在 img/video 标签中，因此不需要登录
func RegisterRoutes(r *gin.RouterGroup, h *MediaHandler) {
	r.GET("/media/:id", h.GetMedia)
}
