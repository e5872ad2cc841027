package util

import (
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxMediaFiles 单次请求允许上传的媒体文件数量
const MaxMediaFiles = 5

var mimeToExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"video/mp4":  ".mp4",
}

// MediaFilename 按用户和内容类型生成媒体文件名
func MediaFilename(userID, contentType string) string {
	ext, ok := mimeToExt[contentType]
	if !ok {
		if i := strings.Index(contentType, "/"); i >= 0 {
			ext = "." + contentType[i+1:]
		}
	}
	return fmt.Sprintf("user-%s-%d-%s%s", userID, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

// IsAllowedMedia 只允许图片和视频
func IsAllowedMedia(file *multipart.FileHeader) bool {
	contentType := file.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

// ValidateMediaFiles 校验上传文件的数量和类型
func ValidateMediaFiles(files []*multipart.FileHeader) error {
	if len(files) > MaxMediaFiles {
		return fmt.Errorf("最多只能上传 %d 个文件", MaxMediaFiles)
	}
	for _, f := range files {
		if !IsAllowedMedia(f) {
			return fmt.Errorf("不支持的文件类型: %s，只允许 .jpg、.jpeg、.png 和 .mp4", f.Filename)
		}
	}
	return nil
}
