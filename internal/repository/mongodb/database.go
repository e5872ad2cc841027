package mongodb

import (
	"context"
	"errors"
	"novus-backend/internal/common"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/util"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	usersCollection      = "users"
	postsCollection      = "posts"
	commentsCollection   = "comments"
	activitiesCollection = "activities"
	chatsCollection      = "chats"
	messagesCollection   = "messages"
)

const connectTimeout = 10 * time.Second

// Connect 连接 MongoDB，启动时的 ping 失败会重试
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	util.Logger.Info("正在连接数据库", zap.String("database", dbName))
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		util.Logger.Error("创建数据库连接失败", util.Error(err))
		return nil, nil, err
	}

	err = common.WithRetry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		return client.Ping(pingCtx, nil)
	}, 3)
	if err != nil {
		util.Logger.Error("无法连接到数据库", util.Error(err))
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	util.Logger.Info("成功连接到数据库")
	return client, client.Database(dbName), nil
}

// EnsureIndexes 创建查询依赖的索引
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userName", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		postsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "likes", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "post", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		activitiesCollection: {
			{Keys: bson.D{{Key: "toUser", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "targetPost", Value: 1}}},
		},
		chatsCollection: {
			{Keys: bson.D{{Key: "users", Value: 1}, {Key: "updatedAt", Value: -1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{Key: "chat", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			util.Logger.Error("创建索引失败", zap.String("collection", name), util.Error(err))
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// updateMembers 用 $addToSet/$pull 之类的更新修改单个文档，返回 field 更新后的长度
func updateMembers(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, update bson.M, field string) (int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{field: 1})
	var doc bson.M
	if err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		if isNotFound(err) {
			return 0, interfaces.ErrNotFound
		}
		return 0, err
	}
	members, _ := doc[field].(primitive.A)
	return len(members), nil
}

// pageOptions 生成分页查询参数，page 从 1 开始
func pageOptions(page, pageSize int) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return options.Find().
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
}

// idsOrEmpty 保证数组字段写入为 [] 而不是 null
func idsOrEmpty[T any](ids []T) []T {
	if ids == nil {
		return []T{}
	}
	return ids
}
