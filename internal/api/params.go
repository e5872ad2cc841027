package api

import (
	"mime/multipart"
	"novus-backend/internal/errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ObjectIDParam 解析路径参数中的文档ID，失败时已写入 400 响应
func ObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid "+name, err))
		return primitive.NilObjectID, false
	}
	return id, true
}

// Pagination 读取 page 和 limit 查询参数
func Pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// MediaFiles 取出 multipart 表单中 field 字段的文件，非 multipart 请求返回 nil
func MediaFiles(c *gin.Context, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}
