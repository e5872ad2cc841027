package service

import (
	"context"
	"mime/multipart"
	"novus-backend/internal/errors"
	"novus-backend/internal/metrics"
	"novus-backend/internal/storage"
	"novus-backend/internal/util"
	"path"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaUploader 校验并保存用户上传的媒体
type MediaUploader struct {
	store   storage.FileStorage
	metrics *metrics.Collector
}

func NewMediaUploader(store storage.FileStorage, collector *metrics.Collector) *MediaUploader {
	return &MediaUploader{store: store, metrics: collector}
}

// Upload 把文件保存到 folder 下，返回按上传顺序排列的 URL
func (u *MediaUploader) Upload(ctx context.Context, folder string, owner primitive.ObjectID, files []*multipart.FileHeader) ([]string, error) {
	if err := util.ValidateMediaFiles(files); err != nil {
		return nil, errors.Wrap(errors.ErrValidation, "invalid media", err)
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		name := util.MediaFilename(owner.Hex(), f.Header.Get("Content-Type"))
		url, err := u.store.UploadFile(ctx, f, path.Join(folder, name))
		if err != nil {
			util.Logger.Error("上传媒体失败", util.ID("user_id", owner), util.Error(err))
			return nil, errors.Wrap(errors.ErrStorage, "failed to upload media", err)
		}
		u.metrics.RecordUpload(f.Size)
		urls = append(urls, url)
	}
	return urls, nil
}
