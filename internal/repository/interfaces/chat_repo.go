package interfaces

import (
	"context"
	"novus-backend/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatRepository interface {
	CreateChat(ctx context.Context, chat *model.Chat) error
	FindChatByID(ctx context.Context, id primitive.ObjectID) (*model.Chat, error)
	// FindDirectChat 查找两人之间的私聊
	FindDirectChat(ctx context.Context, a, b primitive.ObjectID) (*model.Chat, error)
	// FindChatsByUser 按更新时间倒序返回
	FindChatsByUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Chat, error)
	SetLastMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error
	DeleteChat(ctx context.Context, id primitive.ObjectID) error
	CountChats(ctx context.Context) (int, error)

	CreateMessage(ctx context.Context, message *model.Message) error
	FindMessagesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Message, error)
	// FindMessagesByChat 按创建时间升序返回
	FindMessagesByChat(ctx context.Context, chatID primitive.ObjectID) ([]*model.Message, error)
	DeleteMessagesByChat(ctx context.Context, chatID primitive.ObjectID) error
	MarkSeen(ctx context.Context, chatID, userID primitive.ObjectID) (int, error)
}
