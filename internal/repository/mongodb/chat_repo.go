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

type chatRepository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepository(db *mongo.Database) interfaces.ChatRepository {
	return &chatRepository{
		chats:    db.Collection(chatsCollection),
		messages: db.Collection(messagesCollection),
	}
}

// CreateChat 创建会话
func (r *chatRepository) CreateChat(ctx context.Context, chat *model.Chat) error {
	now := time.Now()
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	chat.CreatedAt, chat.UpdatedAt = now, now
	if _, err := r.chats.InsertOne(ctx, chat); err != nil {
		util.Logger.Error("创建会话失败", util.Error(err))
		return err
	}
	util.Logger.Info("会话创建成功", util.ID("chat_id", chat.ID))
	return nil
}

func (r *chatRepository) FindChatByID(ctx context.Context, id primitive.ObjectID) (*model.Chat, error) {
	return r.findChat(ctx, bson.M{"_id": id})
}

// FindDirectChat 两人私聊的参与者集合恰好是 {a, b}
func (r *chatRepository) FindDirectChat(ctx context.Context, a, b primitive.ObjectID) (*model.Chat, error) {
	return r.findChat(ctx, bson.M{
		"isGroupChat": false,
		"users":       bson.M{"$all": bson.A{a, b}, "$size": 2},
	})
}

func (r *chatRepository) findChat(ctx context.Context, filter bson.M) (*model.Chat, error) {
	var chat model.Chat
	if err := r.chats.FindOne(ctx, filter).Decode(&chat); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		util.Logger.Error("查找会话失败", util.Error(err))
		return nil, err
	}
	return &chat, nil
}

// FindChatsByUser 获取用户参与的会话
func (r *chatRepository) FindChatsByUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.chats.Find(ctx, bson.M{"users": userID}, opts)
	if err != nil {
		util.Logger.Error("查询会话失败", util.ID("user_id", userID), util.Error(err))
		return nil, err
	}
	chats := []*model.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		util.Logger.Error("解析会话失败", util.Error(err))
		return nil, err
	}
	return chats, nil
}

// SetLastMessage 记录最新消息并刷新会话更新时间
func (r *chatRepository) SetLastMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"lastMessage": messageID, "updatedAt": time.Now()}}
	if _, err := r.chats.UpdateByID(ctx, chatID, update); err != nil {
		util.Logger.Error("更新会话最新消息失败", util.ID("chat_id", chatID), util.Error(err))
		return err
	}
	return nil
}

func (r *chatRepository) DeleteChat(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.chats.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		util.Logger.Error("删除会话失败", util.ID("chat_id", id), util.Error(err))
		return err
	}
	util.Logger.Info("会话删除成功", util.ID("chat_id", id))
	return nil
}

func (r *chatRepository) CountChats(ctx context.Context) (int, error) {
	total, err := r.chats.CountDocuments(ctx, bson.M{})
	return int(total), err
}

// CreateMessage 创建消息
func (r *chatRepository) CreateMessage(ctx context.Context, message *model.Message) error {
	now := time.Now()
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	message.CreatedAt, message.UpdatedAt = now, now
	message.Media = idsOrEmpty(message.Media)
	message.SeenBy = idsOrEmpty(message.SeenBy)
	if _, err := r.messages.InsertOne(ctx, message); err != nil {
		util.Logger.Error("创建消息失败", util.ID("chat_id", message.ChatID), util.Error(err))
		return err
	}
	return nil
}

func (r *chatRepository) FindMessagesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Message, error) {
	if len(ids) == 0 {
		return []*model.Message{}, nil
	}
	return r.findMessages(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *chatRepository) FindMessagesByChat(ctx context.Context, chatID primitive.ObjectID) ([]*model.Message, error) {
	return r.findMessages(ctx, bson.M{"chat": chatID}, options.Find().SetSort(oldestFirst()))
}

func (r *chatRepository) findMessages(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*model.Message, error) {
	cursor, err := r.messages.Find(ctx, filter, opts...)
	if err != nil {
		util.Logger.Error("查询消息失败", util.Error(err))
		return nil, err
	}
	messages := []*model.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		util.Logger.Error("解析消息失败", util.Error(err))
		return nil, err
	}
	return messages, nil
}

// DeleteMessagesByChat 删除会话中的全部消息
func (r *chatRepository) DeleteMessagesByChat(ctx context.Context, chatID primitive.ObjectID) error {
	if _, err := r.messages.DeleteMany(ctx, bson.M{"chat": chatID}); err != nil {
		util.Logger.Error("删除会话消息失败", util.ID("chat_id", chatID), util.Error(err))
		return err
	}
	return nil
}

// MarkSeen 把用户加入会话消息的已读集合，返回更新条数
func (r *chatRepository) MarkSeen(ctx context.Context, chatID, userID primitive.ObjectID) (int, error) {
	filter := bson.M{"chat": chatID, "seenBy": bson.M{"$ne": userID}}
	update := bson.M{"$addToSet": bson.M{"seenBy": userID}}
	result, err := r.messages.UpdateMany(ctx, filter, update)
	if err != nil {
		util.Logger.Error("标记消息已读失败", util.ID("chat_id", chatID), util.Error(err))
		return 0, err
	}
	return int(result.ModifiedCount), nil
}
