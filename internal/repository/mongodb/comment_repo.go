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

type commentRepository struct {
	coll *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) interfaces.CommentRepository {
	return &commentRepository{coll: db.Collection(commentsCollection)}
}

// Create 创建评论
func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	now := time.Now()
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	comment.CreatedAt, comment.UpdatedAt = now, now
	comment.Likes = idsOrEmpty(comment.Likes)

	if _, err := r.coll.InsertOne(ctx, comment); err != nil {
		util.Logger.Error("创建评论失败", util.ID("post_id", comment.PostID), util.Error(err))
		return err
	}
	return nil
}

// FindByID 通过ID查找评论
func (r *commentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	var comment model.Comment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		util.Logger.Error("查找评论失败", util.ID("comment_id", id), util.Error(err))
		return nil, err
	}
	return &comment, nil
}

// FindByPost 获取帖子下的全部评论
func (r *commentRepository) FindByPost(ctx context.Context, postID primitive.ObjectID) ([]*model.Comment, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"post": postID}, options.Find().SetSort(oldestFirst()))
	if err != nil {
		util.Logger.Error("查询评论失败", util.ID("post_id", postID), util.Error(err))
		return nil, err
	}
	comments := []*model.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		util.Logger.Error("解析评论失败", util.Error(err))
		return nil, err
	}
	return comments, nil
}

// Update 更新评论内容
func (r *commentRepository) Update(ctx context.Context, comment *model.Comment) error {
	comment.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{"text": comment.Text, "updatedAt": comment.UpdatedAt}}
	if _, err := r.coll.UpdateByID(ctx, comment.ID, update); err != nil {
		util.Logger.Error("更新评论失败", util.ID("comment_id", comment.ID), util.Error(err))
		return err
	}
	return nil
}

// Delete 删除评论，回复保留为孤儿
func (r *commentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		util.Logger.Error("删除评论失败", util.ID("comment_id", id), util.Error(err))
		return err
	}
	return nil
}

func (r *commentRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"post": postID}); err != nil {
		util.Logger.Error("删除帖子评论失败", util.ID("post_id", postID), util.Error(err))
		return err
	}
	return nil
}

func (r *commentRepository) AddLike(ctx context.Context, id, userID primitive.ObjectID) (int, error) {
	return r.updateLikes(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (r *commentRepository) RemoveLike(ctx context.Context, id, userID primitive.ObjectID) (int, error) {
	return r.updateLikes(ctx, id, bson.M{"$pull": bson.M{"likes": userID}})
}

func (r *commentRepository) updateLikes(ctx context.Context, id primitive.ObjectID, update bson.M) (int, error) {
	n, err := updateMembers(ctx, r.coll, id, update, "likes")
	if err != nil && err != interfaces.ErrNotFound {
		util.Logger.Error("更新评论点赞失败", util.ID("comment_id", id), util.Error(err))
	}
	return n, err
}

func (r *commentRepository) Count(ctx context.Context) (int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(total), err
}
