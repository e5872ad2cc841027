package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"novus-backend/internal/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const mediaBucket = "media"

// ErrFileNotFound 表示 GridFS 中没有对应文件
var ErrFileNotFound = errors.New("file not found")

// GridFSStorage 把媒体文件保存在 MongoDB 中
type GridFSStorage struct {
	bucket  *gridfs.Bucket
	baseURL string
}

func NewGridFSStorage(db *mongo.Database, baseURL string) (*GridFSStorage, error) {
	if db == nil {
		return nil, errors.New("gridfs 需要数据库连接")
	}
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(mediaBucket))
	if err != nil {
		return nil, err
	}
	return &GridFSStorage{bucket: bucket, baseURL: baseURL}, nil
}

func (s *GridFSStorage) UploadFile(ctx context.Context, file *multipart.FileHeader, path string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	fileID := primitive.NewObjectID()
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": file.Header.Get("Content-Type")})
	uploadStream, err := s.bucket.OpenUploadStreamWithID(fileID, path, opts)
	if err != nil {
		return "", err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = uploadStream.SetWriteDeadline(deadline)
	}

	if _, err := io.Copy(uploadStream, src); err != nil {
		uploadStream.Close()
		return "", fmt.Errorf("写入GridFS失败: %w", err)
	}
	if err := uploadStream.Close(); err != nil {
		return "", fmt.Errorf("写入GridFS失败: %w", err)
	}

	util.Logger.Info("文件上传成功", zap.String("file_id", fileID.Hex()), zap.String("name", path))
	return s.baseURL + "/" + fileID.Hex(), nil
}

// Open 打开文件用于下载，返回内容类型
func (s *GridFSStorage) Open(ctx context.Context, id primitive.ObjectID) (io.ReadCloser, string, error) {
	stream, err := s.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	contentType := "application/octet-stream"
	var meta struct {
		ContentType string `bson:"contentType"`
	}
	if raw := stream.GetFile().Metadata; raw != nil {
		if err := bson.Unmarshal(raw, &meta); err == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}
	return stream, contentType, nil
}
