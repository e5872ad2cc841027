package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"novus-backend/config"
	"novus-backend/internal/errors"
	"novus-backend/internal/middleware"
	"novus-backend/internal/model"
	"novus-backend/internal/service"
	"novus-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTExpiresIn = time.Hour
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidators(v); err != nil {
			panic(err)
		}
	}
	os.Exit(m.Run())
}

// MockAccountService 是 AccountService 的模拟实现
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) result(args mock.Arguments) (*model.User, string, error) {
	user, _ := args.Get(0).(*model.User)
	return user, args.String(1), args.Error(2)
}

func (m *MockAccountService) Signup(ctx context.Context, in service.SignupInput) (*model.User, string, error) {
	return m.result(m.Called(in))
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	return m.result(m.Called(email, password))
}

func (m *MockAccountService) Logout(token string, expiresAt time.Time) {
	m.Called(token, expiresAt)
}

func (m *MockAccountService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(email).Error(0)
}

func (m *MockAccountService) ResetPassword(ctx context.Context, token, password, confirm string) (*model.User, string, error) {
	return m.result(m.Called(token, password, confirm))
}

func (m *MockAccountService) UpdatePassword(ctx context.Context, userID primitive.ObjectID, current, password, confirm string) (*model.User, string, error) {
	return m.result(m.Called(userID, current, password, confirm))
}

// 确保 MockAccountService 实现了 AccountService
var _ AccountService = (*MockAccountService)(nil)

func postJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestSignup 测试注册处理器
func TestSignup(t *testing.T) {
	mockService := new(MockAccountService)
	handler := NewAuthHandler(mockService)
	router := gin.New()
	router.POST("/signup", handler.Signup)

	user := &model.User{ID: primitive.NewObjectID(), UserName: "testuser", Email: "test@example.com"}
	mockService.On("Signup", service.SignupInput{
		FullName:        "Test User",
		UserName:        "testuser",
		Email:           "test@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	}).Return(user, "signed-token", nil).Once()

	body := `{"fullName":"Test User","userName":"testuser","email":"test@example.com","password":"password123","passwordConfirm":"password123"}`
	w := postJSON(router, http.MethodPost, "/signup", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "signed-token", response.Data.Token)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "jwt=signed-token")
	mockService.AssertExpectations(t)

	// 用户名已存在
	mockService.On("Signup", mock.Anything).Return(nil, "", errors.New(errors.ErrUserExists, "username is already taken")).Once()
	w = postJSON(router, http.MethodPost, "/signup", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignup_InvalidInput(t *testing.T) {
	mockService := new(MockAccountService)
	router := gin.New()
	router.POST("/signup", NewAuthHandler(mockService).Signup)

	bodies := []string{
		`{"fullName":"Test","userName":"Bad Name!","email":"test@example.com","password":"password123","passwordConfirm":"password123"}`,
		`{"fullName":"Test","userName":"testuser","email":"not-an-email","password":"password123","passwordConfirm":"password123"}`,
		`{"fullName":"Test","userName":"testuser","email":"test@example.com","password":"short","passwordConfirm":"short"}`,
	}
	for _, body := range bodies {
		w := postJSON(router, http.MethodPost, "/signup", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	mockService.AssertNotCalled(t, "Signup", mock.Anything)
}

// TestLogin 测试登录处理器
func TestLogin(t *testing.T) {
	mockService := new(MockAccountService)
	router := gin.New()
	router.POST("/login", NewAuthHandler(mockService).Login)

	mockUser := &model.User{ID: primitive.NewObjectID(), Email: "test@example.com"}
	mockService.On("Login", "test@example.com", "password123").Return(mockUser, "token", nil)
	mockService.On("Login", "test@example.com", "wrongpassword").
		Return(nil, "", errors.New(errors.ErrInvalidCredentials, "incorrect email or password"))

	w := postJSON(router, http.MethodPost, "/login", `{"email": "test@example.com", "password": "password123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response["data"], "token")

	w = postJSON(router, http.MethodPost, "/login", `{"email": "test@example.com", "password": "wrongpassword"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(router, http.MethodPost, "/login", `{"email": "test@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestLogout_BlacklistsCurrentToken(t *testing.T) {
	mockService := new(MockAccountService)
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	router := gin.New()
	router.GET("/logout", func(c *gin.Context) {
		c.Set(middleware.ContextToken, "current-token")
		c.Set(middleware.ContextClaims, &util.TokenClaims{ExpiresAt: expires})
		c.Next()
	}, NewAuthHandler(mockService).Logout)

	mockService.On("Logout", "current-token", expires).Return()

	w := postJSON(router, http.MethodGet, "/logout", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "jwt=loggedout")
	mockService.AssertExpectations(t)
}

func TestResetPassword(t *testing.T) {
	mockService := new(MockAccountService)
	router := gin.New()
	router.PATCH("/resetPassword/:token", NewAuthHandler(mockService).ResetPassword)

	user := &model.User{ID: primitive.NewObjectID()}
	mockService.On("ResetPassword", "reset-token", "newpassword1", "newpassword1").Return(user, "fresh", nil)
	mockService.On("ResetPassword", "bad-token", "newpassword1", "newpassword1").
		Return(nil, "", errors.New(errors.ErrInvalidToken, "token is invalid or has expired"))

	w := postJSON(router, http.MethodPatch, "/resetPassword/reset-token", `{"password":"newpassword1","passwordConfirm":"newpassword1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(router, http.MethodPatch, "/resetPassword/bad-token", `{"password":"newpassword1","passwordConfirm":"newpassword1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertExpectations(t)
}

func TestForgotPassword(t *testing.T) {
	mockService := new(MockAccountService)
	router := gin.New()
	router.POST("/forgotPassword", NewAuthHandler(mockService).ForgotPassword)

	mockService.On("ForgotPassword", "known@example.com").Return(nil)
	mockService.On("ForgotPassword", "unknown@example.com").Return(errors.New(errors.ErrUserNotFound, "there is no user with that email address"))

	assert.Equal(t, http.StatusOK, postJSON(router, http.MethodPost, "/forgotPassword", `{"email":"known@example.com"}`).Code)
	assert.Equal(t, http.StatusNotFound, postJSON(router, http.MethodPost, "/forgotPassword", `{"email":"unknown@example.com"}`).Code)
}
