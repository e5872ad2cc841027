package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"novus-backend/config"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// FileStorage 保存上传的媒体文件并返回可访问的 URL
type FileStorage interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader, path string) (string, error)
}

// New 根据配置选择存储驱动，db 只在 gridfs 驱动下使用
func New(ctx context.Context, cfg config.Config, db *mongo.Database) (FileStorage, error) {
	switch cfg.StorageDriver {
	case "local":
		return NewLocalStorage(cfg.LocalStoragePath, strings.TrimRight(cfg.BackendURL, "/")+"/uploads")
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCSProjectID, cfg.GCSBucketName, cfg.GCSCredentialsFile)
	case "gridfs":
		return NewGridFSStorage(db, strings.TrimRight(cfg.BackendURL, "/")+"/api/v1/media")
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.StorageDriver)
	}
}
