package mongodb

import (
	"context"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/util"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *mongo.Database) interfaces.UserRepository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

// Create 创建一个新用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	util.Logger.Info("尝试创建新用户", zap.String("email", user.Email))
	now := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt, user.UpdatedAt = now, now
	user.Followers = idsOrEmpty(user.Followers)
	user.Following = idsOrEmpty(user.Following)
	user.BlockedUsers = idsOrEmpty(user.BlockedUsers)

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return interfaces.ErrDuplicate
		}
		util.Logger.Error("创建用户失败", util.Error(err))
		return err
	}
	util.Logger.Info("用户创建成功", util.ID("user_id", user.ID))
	return nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		util.Logger.Error("查找用户失败", util.Error(err))
		return nil, err
	}
	return &user, nil
}

// FindByID 通过ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail 通过邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByUsername 通过用户名查找用户
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"userName": username})
}

// FindByIDs 批量查找用户，结果不保证与 ids 顺序一致
func (r *userRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *userRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*model.User, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		util.Logger.Error("查询用户列表失败", util.Error(err))
		return nil, err
	}
	users := []*model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		util.Logger.Error("解析用户列表失败", util.Error(err))
		return nil, err
	}
	return users, nil
}

// Update 更新用户资料字段
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"fullName":          user.FullName,
		"userName":          user.UserName,
		"email":             user.Email,
		"password":          user.PasswordHash,
		"passwordChangedAt": user.PasswordChangedAt,
		"profileImage":      user.ProfileImage,
		"bio":               user.Bio,
		"role":              user.Role,
		"active":            user.Active,
		"updatedAt":         user.UpdatedAt,
	}}
	if _, err := r.coll.UpdateByID(ctx, user.ID, update); err != nil {
		if isDuplicateKey(err) {
			return interfaces.ErrDuplicate
		}
		util.Logger.Error("更新用户失败", util.ID("user_id", user.ID), util.Error(err))
		return err
	}
	return nil
}

// AddFollow 建立 actor 对 target 的关注
func (r *userRepository) AddFollow(ctx context.Context, actor, target primitive.ObjectID) (*interfaces.FollowCounts, error) {
	return r.updateFollow(ctx, actor, target, "$addToSet")
}

// RemoveFollow 解除 actor 对 target 的关注
func (r *userRepository) RemoveFollow(ctx context.Context, actor, target primitive.ObjectID) (*interfaces.FollowCounts, error) {
	return r.updateFollow(ctx, actor, target, "$pull")
}

// updateFollow 分别更新 target 的 followers 和 actor 的 following，每次只动一个成员
func (r *userRepository) updateFollow(ctx context.Context, actor, target primitive.ObjectID, op string) (*interfaces.FollowCounts, error) {
	followers, err := updateMembers(ctx, r.coll, target, bson.M{op: bson.M{"followers": actor}}, "followers")
	if err != nil {
		r.logRelationError(err, target)
		return nil, err
	}
	following, err := updateMembers(ctx, r.coll, actor, bson.M{op: bson.M{"following": target}}, "following")
	if err != nil {
		r.logRelationError(err, actor)
		return nil, err
	}
	return &interfaces.FollowCounts{Followers: followers, Following: following}, nil
}

// Block 拉黑 target 并解除双方之间的关注
func (r *userRepository) Block(ctx context.Context, actor, target primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"blockedUsers": target},
		"$pull":     bson.M{"following": target, "followers": target},
	}
	if err := r.updateOne(ctx, actor, update); err != nil {
		return err
	}
	return r.updateOne(ctx, target, bson.M{"$pull": bson.M{"following": actor, "followers": actor}})
}

// Unblock 取消拉黑，不恢复关注
func (r *userRepository) Unblock(ctx context.Context, actor, target primitive.ObjectID) error {
	return r.updateOne(ctx, actor, bson.M{"$pull": bson.M{"blockedUsers": target}})
}

func (r *userRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		r.logRelationError(err, id)
		return err
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *userRepository) logRelationError(err error, id primitive.ObjectID) {
	if err != interfaces.ErrNotFound {
		util.Logger.Error("更新用户关系失败", util.ID("user_id", id), util.Error(err))
	}
}

// FindAll 分页获取活跃用户
func (r *userRepository) FindAll(ctx context.Context, page, pageSize int) ([]*model.User, int, error) {
	return r.paged(ctx, activeFilter(), page, pageSize)
}

// Search 按姓名或用户名模糊搜索
func (r *userRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*model.User, int, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := activeFilter()
	filter["$or"] = bson.A{
		bson.M{"fullName": pattern},
		bson.M{"userName": pattern},
	}
	return r.paged(ctx, filter, page, pageSize)
}

func (r *userRepository) paged(ctx context.Context, filter bson.M, page, pageSize int) ([]*model.User, int, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		util.Logger.Error("统计用户数失败", util.Error(err))
		return nil, 0, err
	}
	opts := pageOptions(page, pageSize).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	users, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, int(total), nil
}

// Count 获取用户总数
func (r *userRepository) Count(ctx context.Context) (int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		util.Logger.Error("统计用户数失败", util.Error(err))
		return 0, err
	}
	return int(total), nil
}

// activeFilter 注销的账号不出现在列表中
func activeFilter() bson.M {
	return bson.M{"active": bson.M{"$ne": false}}
}
