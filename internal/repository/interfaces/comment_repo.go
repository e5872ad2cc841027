package interfaces

import (
	"context"
	"novus-backend/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentRepository 定义了评论相关的数据库操作接口
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error)
	// FindByPost 按创建时间升序返回帖子下的全部评论
	FindByPost(ctx context.Context, postID primitive.ObjectID) ([]*model.Comment, error)
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) error
	AddLike(ctx context.Context, id, userID primitive.ObjectID) (int, error)
	RemoveLike(ctx context.Context, id, userID primitive.ObjectID) (int, error)
	Count(ctx context.Context) (int, error)
}
