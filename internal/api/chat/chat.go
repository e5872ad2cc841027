package chat

import (
	"encoding/json"
	"net/http"
	"novus-backend/internal/api"
	"novus-backend/internal/errors"
	"novus-backend/internal/middleware"
	"novus-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatHandler struct {
	chats *service.ChatService
}

func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// idList 接受单个 id 字符串或 id 数组
type idList []string

func (l *idList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = idList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func (l idList) objectIDs() ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(l))
	for _, s := range l {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrValidation, "invalid user id", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		UserIDs     idList `json:"userIds"`
		IsGroupChat bool   `json:"isGroupChat"`
		Name        string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid chat data", err))
		return
	}
	userIDs, err := req.UserIDs.objectIDs()
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	view, created, err := h.chats.CreateChat(c.Request.Context(), middleware.CurrentUserID(c), service.CreateChatInput{
		UserIDs:     userIDs,
		IsGroupChat: req.IsGroupChat,
		Name:        req.Name,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	errors.HandleSuccessWithStatus(c, status, gin.H{"chat": view}, "")
}

func (h *ChatHandler) GetUserChats(c *gin.Context) {
	chats, err := h.chats.GetUserChats(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"results": len(chats), "chats": chats}, "")
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	id, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}
	chat, err := h.chats.GetChat(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"chat": chat}, "")
}

// SendMessage 支持 JSON 或带 media 文件的 multipart 表单
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		ChatID  string `json:"chatId" form:"chatId" binding:"required,objectid"`
		Content string `json:"content" form:"content"`
	}
	if err := c.ShouldBind(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid message data", err))
		return
	}
	chatID, _ := primitive.ObjectIDFromHex(req.ChatID)

	message, err := h.chats.SendMessage(c.Request.Context(), middleware.CurrentUserID(c), service.SendMessageInput{
		ChatID:  chatID,
		Content: req.Content,
		Files:   api.MediaFiles(c, "media"),
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccessWithStatus(c, http.StatusCreated, gin.H{"message": message}, "")
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatID, ok := api.ObjectIDParam(c, "chatId")
	if !ok {
		return
	}
	messages, err := h.chats.GetMessages(c.Request.Context(), middleware.CurrentUserID(c), chatID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"results": len(messages), "messages": messages}, "")
}

func (h *ChatHandler) MarkSeen(c *gin.Context) {
	chatID, ok := api.ObjectIDParam(c, "chatId")
	if !ok {
		return
	}
	n, err := h.chats.MarkSeen(c.Request.Context(), middleware.CurrentUserID(c), chatID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"modified": n}, "")
}

func (h *ChatHandler) DeleteChat(c *gin.Context) {
	chatID, ok := api.ObjectIDParam(c, "chatId")
	if !ok {
		return
	}
	chat, err := h.chats.DeleteChat(c.Request.Context(), middleware.CurrentUserID(c), chatID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"chatId": chat.ID, "users": chat.Users}, "chat deleted")
}
