package interfaces

import (
	"context"
	"novus-backend/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityFilter 匹配通知记录，TargetPost 为空时不参与匹配
type ActivityFilter struct {
	Type       model.ActivityType
	FromUserID primitive.ObjectID
	ToUserID   primitive.ObjectID
	TargetPost *primitive.ObjectID
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	DeleteMatching(ctx context.Context, filter ActivityFilter) error
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) error
	// FindByRecipient 按创建时间倒序返回
	FindByRecipient(ctx context.Context, userID primitive.ObjectID) ([]*model.Activity, error)
	Count(ctx context.Context) (int, error)
}
