package util

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// ValidateUsername 用户名只允许小写字母、数字和下划线，长度 3-20
func ValidateUsername(fl validator.FieldLevel) bool {
	username, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return usernamePattern.MatchString(username)
}

// ValidateObjectID 验证字段是否为合法的 MongoDB ObjectID
func ValidateObjectID(fl validator.FieldLevel) bool {
	id, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return primitive.IsValidObjectID(id)
}

// RegisterValidators 注册自定义验证器
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("username", ValidateUsername); err != nil {
		return err
	}
	return v.RegisterValidation("objectid", ValidateObjectID)
}
