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
)

type postRepository struct {
	coll *mongo.Collection
}

func NewPostRepository(db *mongo.Database) interfaces.PostRepository {
	return &postRepository{coll: db.Collection(postsCollection)}
}

// Create 创建新帖子
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	now := time.Now()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	post.CreatedAt, post.UpdatedAt = now, now
	post.Likes = idsOrEmpty(post.Likes)
	post.Media = idsOrEmpty(post.Media)

	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		util.Logger.Error("创建帖子失败", util.ID("user_id", post.UserID), util.Error(err))
		return err
	}
	util.Logger.Info("帖子创建成功", util.ID("post_id", post.ID))
	return nil
}

// FindByID 通过ID查找帖子
func (r *postRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	var post model.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		util.Logger.Error("查找帖子失败", util.ID("post_id", id), util.Error(err))
		return nil, err
	}
	return &post, nil
}

// Update 更新帖子说明和媒体
func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"caption":   post.Caption,
		"media":     idsOrEmpty(post.Media),
		"updatedAt": post.UpdatedAt,
	}}
	if _, err := r.coll.UpdateByID(ctx, post.ID, update); err != nil {
		util.Logger.Error("更新帖子失败", util.ID("post_id", post.ID), util.Error(err))
		return err
	}
	return nil
}

// Delete 删除帖子
func (r *postRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		util.Logger.Error("删除帖子失败", util.ID("post_id", id), util.Error(err))
		return err
	}
	util.Logger.Info("帖子删除成功", util.ID("post_id", id))
	return nil
}

// FindAll 按创建时间倒序分页获取帖子
func (r *postRepository) FindAll(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		util.Logger.Error("统计帖子数失败", util.Error(err))
		return nil, 0, err
	}
	posts, err := r.find(ctx, bson.M{}, pageOptions(page, pageSize).SetSort(newestFirst()))
	if err != nil {
		return nil, 0, err
	}
	return posts, int(total), nil
}

// FindByUser 获取用户发布的帖子
func (r *postRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Post, error) {
	return r.find(ctx, bson.M{"user": userID}, options.Find().SetSort(newestFirst()))
}

// FindLikedBy 获取用户点赞过的帖子
func (r *postRepository) FindLikedBy(ctx context.Context, userID primitive.ObjectID) ([]*model.Post, error) {
	return r.find(ctx, bson.M{"likes": userID}, options.Find().SetSort(newestFirst()))
}

func (r *postRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Post, error) {
	if len(ids) == 0 {
		return []*model.Post{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// AddLike 把 userID 加入点赞集合
func (r *postRepository) AddLike(ctx context.Context, id, userID primitive.ObjectID) (int, error) {
	return r.updateLikes(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID}})
}

// RemoveLike 把 userID 移出点赞集合
func (r *postRepository) RemoveLike(ctx context.Context, id, userID primitive.ObjectID) (int, error) {
	return r.updateLikes(ctx, id, bson.M{"$pull": bson.M{"likes": userID}})
}

func (r *postRepository) updateLikes(ctx context.Context, id primitive.ObjectID, update bson.M) (int, error) {
	n, err := updateMembers(ctx, r.coll, id, update, "likes")
	if err != nil && err != interfaces.ErrNotFound {
		util.Logger.Error("更新帖子点赞失败", util.ID("post_id", id), util.Error(err))
	}
	return n, err
}

func (r *postRepository) Count(ctx context.Context) (int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		util.Logger.Error("统计帖子数失败", util.Error(err))
		return 0, err
	}
	return int(total), nil
}

func (r *postRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*model.Post, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		util.Logger.Error("查询帖子列表失败", util.Error(err))
		return nil, err
	}
	posts := []*model.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		util.Logger.Error("解析帖子列表失败", util.Error(err))
		return nil, err
	}
	return posts, nil
}

func newestFirst() bson.D {
	return bson.D{{Key: "createdAt", Value: -1}}
}

func oldestFirst() bson.D {
	return bson.D{{Key: "createdAt", Value: 1}}
}
