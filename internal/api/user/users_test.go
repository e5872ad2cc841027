package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"novus-backend/internal/middleware"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/memory"
	"novus-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMailer struct{}

func (nopMailer) SendWelcomeEmail(*model.User) error              { return nil }
func (nopMailer) SendPasswordResetEmail(*model.User) error        { return nil }
func (nopMailer) VerifyPasswordResetToken(string) (string, error) { return "", nil }

type usersEnv struct {
	store  *memory.Store
	router *gin.Engine
}

func newUsersEnv(t *testing.T, names ...string) *usersEnv {
	t.Helper()
	store := memory.NewStore()
	for _, name := range names {
		u := &model.User{FullName: name, UserName: name, Email: name + "@example.com", Role: model.RoleUser, Active: true}
		require.NoError(t, store.Users.Create(context.Background(), u))
	}
	users := service.NewUserService(store.Users, store.Posts, nopMailer{})
	engagement := service.NewEngagementService(store.Users, store.Posts, store.Comments, store.Activities, nil)

	protected := func(c *gin.Context) {
		u, _ := store.Users.FindByUsername(c.Request.Context(), c.GetHeader("X-Test-User"))
		if u == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.ContextUserID, u.ID)
		c.Set(middleware.ContextUser, u)
		c.Next()
	}
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), NewAuthHandler(users), NewUserHandler(users, engagement, nil), protected)
	return &usersEnv{store: store, router: router}
}

func (e *usersEnv) id(t *testing.T, name string) string {
	t.Helper()
	u, err := e.store.Users.FindByUsername(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u.ID.Hex()
}

func (e *usersEnv) call(as, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-User", as)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func data(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestFollowAndBlockEndpoints(t *testing.T) {
	env := newUsersEnv(t, "alice", "bob", "carol")
	bobID := env.id(t, "bob")

	w := env.call("alice", http.MethodPatch, "/api/v1/users/follow/"+bobID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var follow service.FollowResult
	data(t, w, &follow)
	assert.True(t, follow.Following)
	assert.Equal(t, 1, follow.TotalFollowers)

	w = env.call("bob", http.MethodGet, "/api/v1/users/followers/"+bobID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var followers struct {
		Results   int                  `json:"results"`
		Followers []*model.UserSummary `json:"followers"`
	}
	data(t, w, &followers)
	require.Equal(t, 1, followers.Results)
	assert.Equal(t, "alice", followers.Followers[0].UserName)

	w = env.call("alice", http.MethodPatch, "/api/v1/users/follow/"+env.id(t, "alice"), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.call("bob", http.MethodPatch, "/api/v1/users/block/"+env.id(t, "alice"), "")
	require.Equal(t, http.StatusOK, w.Code)
	var block struct {
		Blocked bool `json:"blocked"`
	}
	data(t, w, &block)
	assert.True(t, block.Blocked)

	w = env.call("bob", http.MethodGet, "/api/v1/users/followers/"+bobID, "")
	data(t, w, &followers)
	assert.Zero(t, followers.Results, "blocking prunes the follow")

	w = env.call("bob", http.MethodGet, "/api/v1/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Results int           `json:"results"`
		Total   int           `json:"total"`
		Users   []*model.User `json:"users"`
	}
	data(t, w, &list)
	assert.Equal(t, 3, list.Total, "total is counted before filtering")
	for _, u := range list.Users {
		assert.NotEqual(t, "alice", u.UserName)
	}

	w = env.call("bob", http.MethodGet, "/api/v1/users/blocked-users", "")
	var blocked struct {
		Results int `json:"results"`
	}
	data(t, w, &blocked)
	assert.Equal(t, 1, blocked.Results)
}

func TestSearchAndProfileEndpoints(t *testing.T) {
	env := newUsersEnv(t, "alice", "alfred", "bob")

	w := env.call("bob", http.MethodGet, "/api/v1/users/search/connections?q=al", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var found struct {
		Results int `json:"results"`
	}
	data(t, w, &found)
	assert.Equal(t, 2, found.Results)

	w = env.call("bob", http.MethodGet, "/api/v1/users/search/connections", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.call("bob", http.MethodGet, "/api/v1/users/"+env.id(t, "alice"), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.call("bob", http.MethodGet, "/api/v1/users/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndDeleteMe(t *testing.T) {
	env := newUsersEnv(t, "alice")

	w := env.call("alice", http.MethodPatch, "/api/v1/users/updateMe", `{"password":"newpassword1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.call("alice", http.MethodPatch, "/api/v1/users/updateMe", `{"bio":"hello there"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		User model.User `json:"user"`
	}
	data(t, w, &updated)
	assert.Equal(t, "hello there", updated.User.Bio)

	w = env.call("alice", http.MethodGet, "/api/v1/users/me", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.call("alice", http.MethodDelete, "/api/v1/users/deleteMe", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	u, _ := env.store.Users.FindByUsername(context.Background(), "alice")
	assert.False(t, u.Active)
}
