package memory

import (
	"context"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatRepository struct {
	mu       sync.RWMutex
	chats    map[primitive.ObjectID]*model.Chat
	messages []*model.Message
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{chats: make(map[primitive.ObjectID]*model.Chat)}
}

var _ interfaces.ChatRepository = (*ChatRepository)(nil)

func cloneChat(c *model.Chat) *model.Chat {
	cp := *c
	cp.Users = cloneIDs(c.Users)
	return &cp
}

func cloneMessage(m *model.Message) *model.Message {
	cp := *m
	cp.SeenBy = cloneIDs(m.SeenBy)
	cp.Media = append([]string{}, m.Media...)
	cp.Sender = nil
	return &cp
}

func (r *ChatRepository) CreateChat(_ context.Context, chat *model.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat.ID = primitive.NewObjectID()
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	r.chats[chat.ID] = cloneChat(chat)
	return nil
}

func (r *ChatRepository) FindChatByID(_ context.Context, id primitive.ObjectID) (*model.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, nil
	}
	return cloneChat(c), nil
}

func (r *ChatRepository) FindDirectChat(_ context.Context, a, b primitive.ObjectID) (*model.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.chats {
		if !c.IsGroupChat && len(c.Users) == 2 && c.HasParticipant(a) && c.HasParticipant(b) {
			return cloneChat(c), nil
		}
	}
	return nil, nil
}

// FindChatsByUser 最近更新的在前
func (r *ChatRepository) FindChatsByUser(_ context.Context, userID primitive.ObjectID) ([]*model.Chat, error) {
	r.mu.RLock()
	result := []*model.Chat{}
	for _, c := range r.chats {
		if c.HasParticipant(userID) {
			result = append(result, cloneChat(c))
		}
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func (r *ChatRepository) SetLastMessage(_ context.Context, chatID, messageID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.chats[chatID]; ok {
		id := messageID
		c.LastMessageID = &id
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (r *ChatRepository) DeleteChat(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, id)
	return nil
}

func (r *ChatRepository) CountChats(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chats), nil
}

func (r *ChatRepository) CreateMessage(_ context.Context, m *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now()
	if m.SeenBy == nil {
		m.SeenBy = []primitive.ObjectID{}
	}
	r.messages = append(r.messages, cloneMessage(m))
	return nil
}

func (r *ChatRepository) messagesWhere(match func(*model.Message) bool) []*model.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []*model.Message{}
	for _, m := range r.messages {
		if match(m) {
			result = append(result, cloneMessage(m))
		}
	}
	return result
}

func (r *ChatRepository) FindMessagesByIDs(_ context.Context, ids []primitive.ObjectID) ([]*model.Message, error) {
	return r.messagesWhere(func(m *model.Message) bool { return model.ContainsID(ids, m.ID) }), nil
}

// FindMessagesByChat 最早的在前
func (r *ChatRepository) FindMessagesByChat(_ context.Context, chatID primitive.ObjectID) ([]*model.Message, error) {
	return r.messagesWhere(func(m *model.Message) bool { return m.ChatID == chatID }), nil
}

func (r *ChatRepository) DeleteMessagesByChat(_ context.Context, chatID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.ChatID != chatID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

func (r *ChatRepository) MarkSeen(_ context.Context, chatID, userID primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.ChatID == chatID && !model.ContainsID(m.SeenBy, userID) {
			m.SeenBy = append(m.SeenBy, userID)
			n++
		}
	}
	return n, nil
}

// MessageCount 返回所有会话中的消息总数
func (r *ChatRepository) MessageCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}
