package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Chat struct {
	ID            primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	IsGroupChat   bool                 `json:"isGroupChat" bson:"isGroupChat"`
	Name          string               `json:"name,omitempty" bson:"name,omitempty"`
	Users         []primitive.ObjectID `json:"users" bson:"users"`
	Admin         *primitive.ObjectID  `json:"admin,omitempty" bson:"admin,omitempty"`
	LastMessageID *primitive.ObjectID  `json:"-" bson:"lastMessage,omitempty"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// HasParticipant 判断用户是否在会话中
func (c *Chat) HasParticipant(userID primitive.ObjectID) bool {
	return ContainsID(c.Users, userID)
}

type Message struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	SenderID  primitive.ObjectID   `json:"senderId" bson:"sender"`
	Sender    *UserSummary         `json:"sender,omitempty" bson:"-"`
	ChatID    primitive.ObjectID   `json:"chat" bson:"chat"`
	Content   string               `json:"content" bson:"content"`
	Media     []string             `json:"media" bson:"media"`
	SeenBy    []primitive.ObjectID `json:"seenBy" bson:"seenBy"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// ChatView 是会话列表/详情返回的数据
type ChatView struct {
	*Chat
	Users       []*UserSummary `json:"users,omitempty"`
	OtherUser   *UserSummary   `json:"otherUser,omitempty"`
	LastMessage *Message       `json:"lastMessage,omitempty"`
}
