package interfaces

import (
	"context"
	"novus-backend/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowCounts 是关注变更后 target 的粉丝数和 actor 的关注数
type FollowCounts struct {
	Followers int
	Following int
}

// UserRepository 接口定义了用户仓库应该实现的方法。
// 查找方法在文档不存在时返回 (nil, nil)。
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// AddFollow 把 target 加入 actor 的 following，把 actor 加入 target 的 followers
	AddFollow(ctx context.Context, actor, target primitive.ObjectID) (*FollowCounts, error)
	RemoveFollow(ctx context.Context, actor, target primitive.ObjectID) (*FollowCounts, error)
	// Block 把 target 加入 actor 的黑名单，并解除双方之间的关注
	Block(ctx context.Context, actor, target primitive.ObjectID) error
	Unblock(ctx context.Context, actor, target primitive.ObjectID) error
	FindAll(ctx context.Context, page, pageSize int) ([]*model.User, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*model.User, int, error)
	Count(ctx context.Context) (int, error)
}
