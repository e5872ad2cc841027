package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityType string

const (
	ActivityLike   ActivityType = "like"
	ActivityFollow ActivityType = "follow"
)

// Activity 是点赞/关注产生的通知记录，只随切换操作创建和删除
type Activity struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Type       ActivityType        `json:"type" bson:"type"`
	FromUserID primitive.ObjectID  `json:"fromUserId" bson:"fromUser"`
	ToUserID   primitive.ObjectID  `json:"toUser" bson:"toUser"`
	TargetPost *primitive.ObjectID `json:"targetPostId,omitempty" bson:"targetPost,omitempty"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
}

// ActivityView 是通知列表中返回的数据
type ActivityView struct {
	*Activity
	FromUser   *UserSummary `json:"fromUser"`
	TargetPost *PostPreview `json:"targetPost,omitempty"`
}

// PostPreview 是通知中展开的帖子
type PostPreview struct {
	ID    primitive.ObjectID `json:"_id"`
	Media []Media            `json:"media"`
}
