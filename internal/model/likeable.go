package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Likeable 是可以被点赞的实体
type Likeable interface {
	LikeSet() []primitive.ObjectID
	OwnerID() primitive.ObjectID
	// ActivityTarget 返回通知中引用的帖子，false 表示不产生通知
	ActivityTarget() (primitive.ObjectID, bool)
}

var (
	_ Likeable = (*Post)(nil)
	_ Likeable = (*Comment)(nil)
)
