package mongodb

import (
	"context"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/util"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type activityRepository struct {
	coll *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) interfaces.ActivityRepository {
	return &activityRepository{coll: db.Collection(activitiesCollection)}
}

func (r *activityRepository) Create(ctx context.Context, activity *model.Activity) error {
	if activity.ID.IsZero() {
		activity.ID = primitive.NewObjectID()
	}
	activity.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, activity); err != nil {
		util.Logger.Error("创建通知失败", zap.String("type", string(activity.Type)), util.Error(err))
		return err
	}
	return nil
}

// DeleteMatching 删除与过滤条件匹配的通知
func (r *activityRepository) DeleteMatching(ctx context.Context, filter interfaces.ActivityFilter) error {
	query := bson.M{
		"type":     filter.Type,
		"fromUser": filter.FromUserID,
		"toUser":   filter.ToUserID,
	}
	if filter.TargetPost != nil {
		query["targetPost"] = *filter.TargetPost
	}
	if _, err := r.coll.DeleteMany(ctx, query); err != nil {
		util.Logger.Error("删除通知失败", zap.String("type", string(filter.Type)), util.Error(err))
		return err
	}
	return nil
}

func (r *activityRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"targetPost": postID}); err != nil {
		util.Logger.Error("删除帖子通知失败", util.ID("post_id", postID), util.Error(err))
		return err
	}
	return nil
}

// FindByRecipient 获取发给用户的通知
func (r *activityRepository) FindByRecipient(ctx context.Context, userID primitive.ObjectID) ([]*model.Activity, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"toUser": userID}, options.Find().SetSort(newestFirst()))
	if err != nil {
		util.Logger.Error("查询通知失败", util.ID("user_id", userID), util.Error(err))
		return nil, err
	}
	activities := []*model.Activity{}
	if err := cursor.All(ctx, &activities); err != nil {
		util.Logger.Error("解析通知失败", util.Error(err))
		return nil, err
	}
	return activities, nil
}

func (r *activityRepository) Count(ctx context.Context) (int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(total), err
}
