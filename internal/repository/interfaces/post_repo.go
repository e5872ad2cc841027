package interfaces

import (
	"context"
	"novus-backend/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostRepository 定义了帖子相关的数据库操作接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindAll(ctx context.Context, page, pageSize int) ([]*model.Post, int, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Post, error)
	FindLikedBy(ctx context.Context, userID primitive.ObjectID) ([]*model.Post, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Post, error)
	// AddLike 和 RemoveLike 只增删单个成员，返回更新后的点赞数
	AddLike(ctx context.Context, id, userID primitive.ObjectID) (int, error)
	RemoveLike(ctx context.Context, id, userID primitive.ObjectID) (int, error)
	Count(ctx context.Context) (int, error)
}
