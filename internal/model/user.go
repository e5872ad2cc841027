package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 结构体表示用户模型
type User struct {
	ID                primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	FullName          string               `json:"fullName" bson:"fullName"`
	UserName          string               `json:"userName" bson:"userName"`
	Email             string               `json:"email" bson:"email"`
	PasswordHash      string               `json:"-" bson:"password"` // 密码哈希不应在JSON中暴露
	PasswordChangedAt *time.Time           `json:"-" bson:"passwordChangedAt,omitempty"`
	ProfileImage      string               `json:"profileImage" bson:"profileImage"`
	Bio               string               `json:"bio" bson:"bio"`
	Followers         []primitive.ObjectID `json:"followers" bson:"followers"`
	Following         []primitive.ObjectID `json:"following" bson:"following"`
	BlockedUsers      []primitive.ObjectID `json:"blockedUsers" bson:"blockedUsers"`
	Role              string               `json:"role" bson:"role"`
	Active            bool                 `json:"-" bson:"active"`
	CreatedAt         time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// UserSummary 是引用展开时返回的用户信息
type UserSummary struct {
	ID           primitive.ObjectID `json:"_id"`
	FullName     string             `json:"fullName"`
	UserName     string             `json:"userName,omitempty"`
	ProfileImage string             `json:"profileImage"`
}

// Summary 返回用户的展开信息
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:           u.ID,
		FullName:     u.FullName,
		UserName:     u.UserName,
		ProfileImage: u.ProfileImage,
	}
}

// HasBlocked 判断是否已拉黑 other
func (u *User) HasBlocked(other primitive.ObjectID) bool {
	return ContainsID(u.BlockedUsers, other)
}

// ChangedPasswordAfter 判断令牌签发后是否修改过密码
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil || issuedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// UserProfile 是用户详情页数据
type UserProfile struct {
	*User
	Followers []*UserSummary `json:"followers"`
	Following []*UserSummary `json:"following"`
	Posts     []*Post        `json:"posts"`
}
