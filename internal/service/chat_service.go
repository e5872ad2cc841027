package service

import (
	"context"
	"mime/multipart"
	"novus-backend/internal/errors"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/util"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultGroupName = "Group Chat"
	maxMessageLength = 2200
)

// CreateChatInput 是创建会话的数据
type CreateChatInput struct {
	UserIDs     []primitive.ObjectID
	IsGroupChat bool
	Name        string
}

// SendMessageInput 是发送消息的数据
type SendMessageInput struct {
	ChatID  primitive.ObjectID
	Content string
	Files   []*multipart.FileHeader
}

type ChatService struct {
	chatRepo interfaces.ChatRepository
	userRepo interfaces.UserRepository
	uploader *MediaUploader
}

func NewChatService(chatRepo interfaces.ChatRepository, userRepo interfaces.UserRepository, uploader *MediaUploader) *ChatService {
	return &ChatService{chatRepo: chatRepo, userRepo: userRepo, uploader: uploader}
}

// CreateChat 创建会话。两人私聊已存在时返回已有会话，created 为 false。
func (s *ChatService) CreateChat(ctx context.Context, creator primitive.ObjectID, in CreateChatInput) (view *model.ChatView, created bool, err error) {
	if len(in.UserIDs) < 1 {
		return nil, false, errors.New(errors.ErrValidation, "users required")
	}
	users := model.UniqueIDs(append(append([]primitive.ObjectID{}, in.UserIDs...), creator))

	found, err := s.userRepo.FindByIDs(ctx, users)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrDatabase, "failed to load users", err)
	}
	if len(found) != len(users) {
		return nil, false, errors.New(errors.ErrUserNotFound, "one or more users not found")
	}

	if !in.IsGroupChat && len(users) == 2 {
		existing, err := s.chatRepo.FindDirectChat(ctx, users[0], users[1])
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrDatabase, "failed to look up chat", err)
		}
		if existing != nil {
			view, err := s.buildView(ctx, creator, existing)
			return view, false, err
		}
	}

	chat := &model.Chat{Users: users, IsGroupChat: in.IsGroupChat}
	if in.IsGroupChat {
		chat.Name = strings.TrimSpace(in.Name)
		if chat.Name == "" {
			chat.Name = defaultGroupName
		}
		admin := creator
		chat.Admin = &admin
	}
	if err := s.chatRepo.CreateChat(ctx, chat); err != nil {
		return nil, false, errors.Wrap(errors.ErrDatabase, "failed to create chat", err)
	}

	view, err = s.buildView(ctx, creator, chat)
	return view, true, err
}

// GetUserChats 返回用户的会话，最近更新的在前
func (s *ChatService) GetUserChats(ctx context.Context, viewer primitive.ObjectID) ([]*model.ChatView, error) {
	chats, err := s.chatRepo.FindChatsByUser(ctx, viewer)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load chats", err)
	}

	var userIDs, messageIDs []primitive.ObjectID
	for _, c := range chats {
		userIDs = append(userIDs, c.Users...)
		if c.LastMessageID != nil {
			messageIDs = append(messageIDs, *c.LastMessageID)
		}
	}
	users, err := loadUserSummaries(ctx, s.userRepo, userIDs)
	if err != nil {
		return nil, err
	}
	messages, err := s.chatRepo.FindMessagesByIDs(ctx, messageIDs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load messages", err)
	}
	lastByID := make(map[primitive.ObjectID]*model.Message, len(messages))
	for _, m := range messages {
		lastByID[m.ID] = m
	}

	views := make([]*model.ChatView, 0, len(chats))
	for _, c := range chats {
		view := &model.ChatView{Chat: c, OtherUser: otherUser(c, viewer, users)}
		if c.LastMessageID != nil {
			view.LastMessage = lastByID[*c.LastMessageID]
		}
		views = append(views, view)
	}
	return views, nil
}

// GetChat 获取会话详情，只有参与者可以查看
func (s *ChatService) GetChat(ctx context.Context, viewer, id primitive.ObjectID) (*model.ChatView, error) {
	chat, err := s.participantChat(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, viewer, chat)
}

// SendMessage 发送消息并更新会话的最新消息
func (s *ChatService) SendMessage(ctx context.Context, sender primitive.ObjectID, in SendMessageInput) (*model.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Files) == 0 {
		return nil, errors.New(errors.ErrValidation, "invalid message data")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, errors.New(errors.ErrValidation, "content must be less than 2200 characters")
	}
	if _, err := s.participantChat(ctx, sender, in.ChatID); err != nil {
		return nil, err
	}

	media, err := s.uploader.Upload(ctx, "chats", sender, in.Files)
	if err != nil {
		return nil, err
	}

	message := &model.Message{
		SenderID: sender,
		ChatID:   in.ChatID,
		Content:  content,
		Media:    media,
		SeenBy:   []primitive.ObjectID{sender},
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to send message", err)
	}
	if err := s.chatRepo.SetLastMessage(ctx, in.ChatID, message.ID); err != nil {
		util.Logger.Warn("更新会话最新消息失败", util.ID("chat_id", in.ChatID), util.Error(err))
	}

	users, err := loadUserSummaries(ctx, s.userRepo, []primitive.ObjectID{sender})
	if err != nil {
		return nil, err
	}
	message.Sender = users[sender]
	return message, nil
}

// GetMessages 返回会话消息，最早的在前
func (s *ChatService) GetMessages(ctx context.Context, viewer, chatID primitive.ObjectID) ([]*model.Message, error) {
	if _, err := s.participantChat(ctx, viewer, chatID); err != nil {
		return nil, err
	}
	messages, err := s.chatRepo.FindMessagesByChat(ctx, chatID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load messages", err)
	}
	senders := make([]primitive.ObjectID, 0, len(messages))
	for _, m := range messages {
		senders = append(senders, m.SenderID)
	}
	users, err := loadUserSummaries(ctx, s.userRepo, senders)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		m.Sender = users[m.SenderID]
	}
	return messages, nil
}

// MarkSeen 把会话中的消息标记为已读，返回新标记的条数
func (s *ChatService) MarkSeen(ctx context.Context, viewer, chatID primitive.ObjectID) (int, error) {
	if _, err := s.participantChat(ctx, viewer, chatID); err != nil {
		return 0, err
	}
	n, err := s.chatRepo.MarkSeen(ctx, chatID, viewer)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, "failed to mark messages as seen", err)
	}
	return n, nil
}

// DeleteChat 先删除消息再删除会话，返回被删除会话的参与者
func (s *ChatService) DeleteChat(ctx context.Context, viewer, chatID primitive.ObjectID) (*model.Chat, error) {
	chat, err := s.participantChat(ctx, viewer, chatID)
	if err != nil {
		return nil, err
	}
	if chat.IsGroupChat && chat.Admin != nil && *chat.Admin != viewer {
		return nil, errors.New(errors.ErrForbidden, "only the group admin can delete this chat")
	}
	if err := s.chatRepo.DeleteMessagesByChat(ctx, chatID); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to delete messages", err)
	}
	if err := s.chatRepo.DeleteChat(ctx, chatID); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to delete chat", err)
	}
	return chat, nil
}

func (s *ChatService) participantChat(ctx context.Context, viewer, id primitive.ObjectID) (*model.Chat, error) {
	chat, err := s.chatRepo.FindChatByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load chat", err)
	}
	if chat == nil {
		return nil, errors.New(errors.ErrChatNotFound, "chat not found")
	}
	if !chat.HasParticipant(viewer) {
		return nil, errors.New(errors.ErrForbidden, "you are not a participant of this chat")
	}
	return chat, nil
}

// buildView 展开会话参与者
func (s *ChatService) buildView(ctx context.Context, viewer primitive.ObjectID, chat *model.Chat) (*model.ChatView, error) {
	users, err := loadUserSummaries(ctx, s.userRepo, chat.Users)
	if err != nil {
		return nil, err
	}
	view := &model.ChatView{
		Chat:      chat,
		Users:     make([]*model.UserSummary, 0, len(chat.Users)),
		OtherUser: otherUser(chat, viewer, users),
	}
	for _, id := range chat.Users {
		if u, ok := users[id]; ok {
			view.Users = append(view.Users, u)
		}
	}
	return view, nil
}

// otherUser 返回会话中第一个不是 viewer 的参与者
func otherUser(chat *model.Chat, viewer primitive.ObjectID, users map[primitive.ObjectID]*model.UserSummary) *model.UserSummary {
	for _, id := range chat.Users {
		if id != viewer {
			return users[id]
		}
	}
	return nil
}
