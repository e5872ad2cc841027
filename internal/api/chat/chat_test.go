package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"novus-backend/internal/middleware"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/memory"
	"novus-backend/internal/service"
	"novus-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidators(v); err != nil {
			panic(err)
		}
	}
	os.Exit(m.Run())
}

type fakeStorage struct{}

func (fakeStorage) UploadFile(_ context.Context, _ *multipart.FileHeader, path string) (string, error) {
	return "https://cdn.example.com/" + path, nil
}

type testEnv struct {
	store  *memory.Store
	router *gin.Engine
	users  map[string]*model.User
}

func newTestEnv(t *testing.T, names ...string) *testEnv {
	t.Helper()
	store := memory.NewStore()
	env := &testEnv{store: store, users: map[string]*model.User{}}
	for _, name := range names {
		u := &model.User{FullName: name, UserName: name, Email: name + "@example.com", Active: true}
		require.NoError(t, store.Users.Create(context.Background(), u))
		env.users[name] = u
	}

	chats := service.NewChatService(store.Chats, store.Users, service.NewMediaUploader(fakeStorage{}, nil))
	protected := func(c *gin.Context) {
		user, ok := env.users[c.GetHeader("X-Test-User")]
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.ContextUserID, user.ID)
		c.Set(middleware.ContextUser, user)
		c.Next()
	}
	env.router = gin.New()
	RegisterRoutes(env.router.Group("/api/v1"), NewChatHandler(chats), protected)
	return env
}

func (e *testEnv) do(as, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", as)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

type chatData struct {
	Chat struct {
		ID          string               `json:"_id"`
		IsGroupChat bool                 `json:"isGroupChat"`
		Name        string               `json:"name"`
		OtherUser   *model.UserSummary   `json:"otherUser"`
		Users       []*model.UserSummary `json:"users"`
	} `json:"chat"`
}

func TestCreateChat_DirectIsReused(t *testing.T) {
	env := newTestEnv(t, "alice", "bob")
	bobID := env.users["bob"].ID.Hex()

	w := env.do("alice", http.MethodPost, "/api/v1/chats", gin.H{"userIds": bobID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first chatData
	decodeData(t, w, &first)
	assert.Equal(t, "bob", first.Chat.OtherUser.UserName)
	assert.Len(t, first.Chat.Users, 2)

	w = env.do("bob", http.MethodPost, "/api/v1/chats", gin.H{"userIds": []string{env.users["alice"].ID.Hex()}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var second chatData
	decodeData(t, w, &second)
	assert.Equal(t, first.Chat.ID, second.Chat.ID)
}

func TestCreateChat_Validation(t *testing.T) {
	env := newTestEnv(t, "alice")

	w := env.do("alice", http.MethodPost, "/api/v1/chats", gin.H{"userIds": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("alice", http.MethodPost, "/api/v1/chats", gin.H{"userIds": "zzz"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("alice", http.MethodPost, "/api/v1/chats", gin.H{"userIds": 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroupChatMessaging(t *testing.T) {
	env := newTestEnv(t, "alice", "bob", "carol", "dave")
	w := env.do("alice", http.MethodPost, "/api/v1/chats", gin.H{
		"userIds":     []string{env.users["bob"].ID.Hex(), env.users["carol"].ID.Hex()},
		"isGroupChat": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created chatData
	decodeData(t, w, &created)
	chatID := created.Chat.ID
	assert.Equal(t, "Group Chat", created.Chat.Name)

	w = env.do("bob", http.MethodPost, "/api/v1/chats/messages", gin.H{"chatId": chatID, "content": "hi all"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do("dave", http.MethodPost, "/api/v1/chats/messages", gin.H{"chatId": chatID, "content": "let me in"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("bob", http.MethodPost, "/api/v1/chats/messages", gin.H{"chatId": "nope", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("carol", http.MethodGet, "/api/v1/chats/messages/"+chatID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs struct {
		Results  int             `json:"results"`
		Messages []model.Message `json:"messages"`
	}
	decodeData(t, w, &msgs)
	require.Equal(t, 1, msgs.Results)
	assert.Equal(t, "bob", msgs.Messages[0].Sender.UserName)

	w = env.do("carol", http.MethodPatch, "/api/v1/chats/messages/"+chatID+"/seen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var seen struct {
		Modified int `json:"modified"`
	}
	decodeData(t, w, &seen)
	assert.Equal(t, 1, seen.Modified)

	w = env.do("alice", http.MethodGet, "/api/v1/chats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Results int `json:"results"`
		Chats   []struct {
			LastMessage *model.Message `json:"lastMessage"`
		} `json:"chats"`
	}
	decodeData(t, w, &list)
	require.Equal(t, 1, list.Results)
	require.NotNil(t, list.Chats[0].LastMessage)
	assert.Equal(t, "hi all", list.Chats[0].LastMessage.Content)

	w = env.do("bob", http.MethodDelete, "/api/v1/chats/"+chatID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "only the group admin deletes")

	w = env.do("alice", http.MethodDelete, "/api/v1/chats/"+chatID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Zero(t, env.store.Chats.MessageCount())

	w = env.do("alice", http.MethodGet, "/api/v1/chats/"+chatID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessage_Multipart(t *testing.T) {
	env := newTestEnv(t, "alice", "bob")
	w := env.do("alice", http.MethodPost, "/api/v1/chats", gin.H{"userIds": env.users["bob"].ID.Hex()})
	var created chatData
	decodeData(t, w, &created)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("chatId", created.Chat.ID))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/messages", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User", "alice")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty content without media is rejected")
}
