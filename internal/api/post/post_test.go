package post

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
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
}

// newTestEnv 用内存仓库组装真实的服务，请求头 X-Test-User 指定当前用户
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	uploader := service.NewMediaUploader(fakeStorage{}, nil)
	engagement := service.NewEngagementService(store.Users, store.Posts, store.Comments, store.Activities, nil)
	posts := service.NewPostService(store.Posts, store.Comments, store.Activities, store.Users, uploader)
	comments := service.NewCommentService(store.Comments, store.Posts, store.Users)

	protected := func(c *gin.Context) {
		user, _ := store.Users.FindByUsername(c.Request.Context(), c.GetHeader("X-Test-User"))
		if user == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.ContextUserID, user.ID)
		c.Set(middleware.ContextUser, user)
		c.Next()
	}

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), NewPostHandler(posts, engagement), NewCommentHandler(comments, engagement), protected)
	return &testEnv{store: store, router: router}
}

func (e *testEnv) addUser(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{FullName: name, UserName: name, Email: name + "@example.com", Role: model.RoleUser, Active: true}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return u
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

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func (e *testEnv) createPost(t *testing.T, as, caption string) string {
	t.Helper()
	w := e.do(as, http.MethodPost, "/api/v1/posts", gin.H{"caption": caption})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Post model.Post `json:"post"`
	}
	decodeData(t, w, &data)
	return data.Post.ID.Hex()
}

func TestCreatePost_Multipart(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("caption", "hello world"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="media"; filename="a.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User", "alice")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Post model.Post `json:"post"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, "hello world", data.Post.Caption)
	require.Len(t, data.Post.Media, 1)
	assert.Contains(t, data.Post.Media[0].URL, "https://cdn.example.com/posts/")
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice")
	env.addUser(t, "bob")
	id := env.createPost(t, "alice", "first post")

	w := env.do("bob", http.MethodPatch, "/api/v1/posts/"+id, gin.H{"caption": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("alice", http.MethodPatch, "/api/v1/posts/"+id, gin.H{"caption": "edited post"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do("bob", http.MethodGet, "/api/v1/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Results int          `json:"results"`
		Total   int          `json:"total"`
		Posts   []model.Post `json:"posts"`
	}
	decodeData(t, w, &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "edited post", list.Posts[0].Caption)
	require.NotNil(t, list.Posts[0].User)
	assert.Equal(t, "alice", list.Posts[0].User.UserName)

	w = env.do("alice", http.MethodDelete, "/api/v1/posts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("alice", http.MethodGet, "/api/v1/posts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleLike_Post(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice")
	env.addUser(t, "bob")
	id := env.createPost(t, "alice", "like me")

	var result service.LikeResult
	w := env.do("bob", http.MethodPatch, "/api/v1/posts/"+id+"/like", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &result)
	assert.Equal(t, service.LikeResult{TotalLikes: 1, Liked: true}, result)

	w = env.do("bob", http.MethodGet, "/api/v1/posts/liked-posts", nil)
	var liked struct {
		Results int `json:"results"`
	}
	decodeData(t, w, &liked)
	assert.Equal(t, 1, liked.Results)

	w = env.do("bob", http.MethodPatch, "/api/v1/posts/"+id+"/like", nil)
	decodeData(t, w, &result)
	assert.Equal(t, service.LikeResult{TotalLikes: 0, Liked: false}, result)

	w = env.do("bob", http.MethodPatch, "/api/v1/posts/not-an-id/like", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentTreeEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice")
	env.addUser(t, "bob")
	postID := env.createPost(t, "alice", "discuss")

	w := env.do("bob", http.MethodPost, "/api/v1/posts/"+postID+"/comments", gin.H{"text": "root"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Comment model.Comment `json:"comment"`
	}
	decodeData(t, w, &created)
	rootID := created.Comment.ID.Hex()

	w = env.do("alice", http.MethodPost, "/api/v1/posts/"+postID+"/comments/"+rootID+"/replies", gin.H{"text": "reply"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decodeData(t, w, &created)
	replyID := created.Comment.ID.Hex()

	w = env.do("bob", http.MethodPost, "/api/v1/posts/"+postID+"/comments", gin.H{"text": "nested", "parentComment": replyID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do("bob", http.MethodPost, "/api/v1/posts/"+postID+"/comments", gin.H{"text": "x", "parentComment": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("alice", http.MethodGet, "/api/v1/posts/"+postID+"/comments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tree struct {
		Results  int                  `json:"results"`
		Comments []*model.CommentNode `json:"comments"`
	}
	decodeData(t, w, &tree)
	assert.Equal(t, 1, tree.Results)
	require.Len(t, tree.Comments[0].Replies, 1)
	assert.Equal(t, 1, tree.Comments[0].Replies[0].Depth)
	require.Len(t, tree.Comments[0].Replies[0].Replies, 1)
	assert.Equal(t, 2, tree.Comments[0].Replies[0].Replies[0].Depth)

	w = env.do("alice", http.MethodDelete, "/api/v1/posts/comments/"+rootID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("alice", http.MethodPatch, "/api/v1/posts/comments/"+rootID+"/like", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	n, _ := env.store.Activities.Count(context.Background())
	assert.Zero(t, n, "comment likes do not notify")
}

func TestRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("nobody", http.MethodGet, "/api/v1/posts", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
