package service

import (
	"context"
	stderrors "errors"
	"novus-backend/internal/errors"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/util"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxBioLength      = 80
)

// Mailer 发送账户相关邮件
type Mailer interface {
	SendWelcomeEmail(user *model.User) error
	SendPasswordResetEmail(user *model.User) error
	VerifyPasswordResetToken(token string) (string, error)
}

// SignupInput 是注册请求的数据
type SignupInput struct {
	FullName        string
	UserName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// ProfileUpdate 只包含允许用户自行修改的字段，nil 表示不修改
type ProfileUpdate struct {
	FullName     *string
	Bio          *string
	ProfileImage *string
}

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo       interfaces.UserRepository
	postRepo       interfaces.PostRepository
	mailer         Mailer
	tokenBlacklist map[string]time.Time
	blacklistMutex sync.RWMutex
	blacklistSwept time.Time
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository, postRepo interfaces.PostRepository, mailer Mailer) *UserService {
	return &UserService{
		userRepo:       userRepo,
		postRepo:       postRepo,
		mailer:         mailer,
		tokenBlacklist: make(map[string]time.Time),
	}
}

// Signup 注册新用户并签发令牌
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := checkNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, "", err
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrDatabase, "failed to check email", err)
	}
	if existing != nil {
		return nil, "", errors.New(errors.ErrUserExists, "email already in use")
	}
	existing, err = s.userRepo.FindByUsername(ctx, in.UserName)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrDatabase, "failed to check username", err)
	}
	if existing != nil {
		return nil, "", errors.New(errors.ErrUserExists, "username already exists")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		FullName:     strings.TrimSpace(in.FullName),
		UserName:     in.UserName,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, interfaces.ErrDuplicate) {
			return nil, "", errors.New(errors.ErrUserExists, "user already exists")
		}
		return nil, "", errors.Wrap(errors.ErrDatabase, "failed to create user", err)
	}

	if err := s.mailer.SendWelcomeEmail(user); err != nil {
		util.Logger.Error("发送欢迎邮件失败", util.ID("user_id", user.ID), util.Error(err))
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	util.Logger.Info("用户注册成功", util.ID("user_id", user.ID))
	return user, token, nil
}

// Login 用户登录
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", errors.New(errors.ErrValidation, "please provide email and password")
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrDatabase, "failed to load user", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		util.Logger.Info("用户登录失败", zap.String("email", email))
		return nil, "", errors.New(errors.ErrInvalidCredentials, "incorrect email or password")
	}
	if !user.Active {
		return nil, "", errors.New(errors.ErrUnauthorized, "this account has been deactivated")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	util.Logger.Info("用户登录成功", util.ID("user_id", user.ID))
	return user, token, nil
}

// Logout 把令牌加入黑名单直到其过期
func (s *UserService) Logout(token string, expiresAt time.Time) {
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(24 * time.Hour)
	}
	s.blacklistMutex.Lock()
	s.sweepBlacklist(time.Now())
	s.tokenBlacklist[token] = expiresAt
	s.blacklistMutex.Unlock()
	util.Logger.Info("用户注销，令牌已加入黑名单")
}

// sweepBlacklist 每分钟最多一次，删除已过期的令牌。调用方需持有写锁。
func (s *UserService) sweepBlacklist(now time.Time) {
	if now.Sub(s.blacklistSwept) < time.Minute {
		return
	}
	s.blacklistSwept = now
	for token, expiry := range s.tokenBlacklist {
		if now.After(expiry) {
			delete(s.tokenBlacklist, token)
		}
	}
}

func (s *UserService) IsTokenBlacklisted(token string) bool {
	s.blacklistMutex.RLock()
	expiry, exists := s.tokenBlacklist[token]
	s.blacklistMutex.RUnlock()
	if !exists {
		return false
	}
	if time.Now().After(expiry) {
		s.blacklistMutex.Lock()
		delete(s.tokenBlacklist, token)
		s.blacklistMutex.Unlock()
		return false
	}
	return true
}

// Authenticate 校验令牌并返回当前用户
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, *util.TokenClaims, error) {
	if s.IsTokenBlacklisted(token) {
		return nil, nil, errors.New(errors.ErrInvalidToken, "token has been revoked")
	}
	claims, err := util.ValidateToken(token)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrInvalidToken, "invalid or expired token", err)
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrInvalidToken, "invalid token subject", err)
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, "failed to load user", err)
	}
	if user == nil || !user.Active {
		return nil, nil, errors.New(errors.ErrUnauthorized, "the user belonging to this token no longer exists")
	}
	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, nil, errors.New(errors.ErrTokenExpired, "password recently changed, please log in again")
	}
	return user, claims, nil
}

// ForgotPassword 发送重置密码邮件
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to load user", err)
	}
	if user == nil {
		return errors.New(errors.ErrUserNotFound, "there is no user with that email address")
	}
	if err := s.mailer.SendPasswordResetEmail(user); err != nil {
		util.Logger.Error("发送重置邮件失败", util.ID("user_id", user.ID), util.Error(err))
		return errors.Wrap(errors.ErrInternal, "there was an error sending the email, try again later", err)
	}
	return nil
}

// ResetPassword 使用重置令牌设置新密码
func (s *UserService) ResetPassword(ctx context.Context, token, password, confirm string) (*model.User, string, error) {
	email, err := s.mailer.VerifyPasswordResetToken(token)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrInvalidToken, "token is invalid or has expired", err)
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrDatabase, "failed to load user", err)
	}
	if user == nil {
		return nil, "", errors.New(errors.ErrInvalidToken, "token is invalid or has expired")
	}
	if err := s.setPassword(ctx, user, password, confirm); err != nil {
		return nil, "", err
	}
	util.Logger.Info("密码重置成功", util.ID("user_id", user.ID))
	token, err = s.issueToken(user)
	return user, token, err
}

// UpdatePassword 校验当前密码后修改密码
func (s *UserService) UpdatePassword(ctx context.Context, userID primitive.ObjectID, current, password, confirm string) (*model.User, string, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return nil, "", errors.New(errors.ErrInvalidCredentials, "your current password is wrong")
	}
	if err := s.setPassword(ctx, user, password, confirm); err != nil {
		return nil, "", err
	}
	token, err := s.issueToken(user)
	return user, token, err
}

func (s *UserService) setPassword(ctx context.Context, user *model.User, password, confirm string) error {
	if err := checkNewPassword(password, confirm); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	// 减一秒保证新签发的令牌晚于修改时间
	changedAt := time.Now().Add(-time.Second)
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt
	if err := s.userRepo.Update(ctx, user); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to update password", err)
	}
	return nil
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load user", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "user not found")
	}
	return user, nil
}

// UpdateMe 更新个人资料
func (s *UserService) UpdateMe(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return nil, errors.New(errors.ErrValidation, "please tell us your name")
		}
		user.FullName = name
	}
	if update.Bio != nil {
		if utf8.RuneCountInString(*update.Bio) > maxBioLength {
			return nil, errors.New(errors.ErrValidation, "bio must be less than 80 characters")
		}
		user.Bio = *update.Bio
	}
	if update.ProfileImage != nil {
		user.ProfileImage = *update.ProfileImage
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update user", err)
	}
	return user, nil
}

// DeactivateMe 注销账户（软删除）
func (s *UserService) DeactivateMe(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	user.Active = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to deactivate user", err)
	}
	util.Logger.Info("用户已注销账户", util.ID("user_id", id))
	return nil
}

// GetUsers 分页获取用户，去掉 viewer 拉黑的用户；total 为过滤前的数量
func (s *UserService) GetUsers(ctx context.Context, viewer *model.User, page, pageSize int) ([]*model.User, int, error) {
	users, total, err := s.userRepo.FindAll(ctx, page, pageSize)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabase, "failed to list users", err)
	}
	return VisibleTo(viewer, users), total, nil
}

// SearchConnections 按姓名或用户名搜索，不包含自己和被拉黑的用户
func (s *UserService) SearchConnections(ctx context.Context, viewer *model.User, query string, page, pageSize int) ([]*model.UserSummary, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, errors.New(errors.ErrValidation, "search query is required")
	}
	users, total, err := s.userRepo.Search(ctx, query, page, pageSize)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabase, "failed to search users", err)
	}
	result := make([]*model.UserSummary, 0, len(users))
	for _, u := range VisibleTo(viewer, users) {
		if u.ID != viewer.ID {
			result = append(result, u.Summary())
		}
	}
	return result, total, nil
}

// GetProfile 获取用户详情，展开关注关系和帖子
func (s *UserService) GetProfile(ctx context.Context, id primitive.ObjectID) (*model.UserProfile, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	followers, err := s.summaries(ctx, user.Followers)
	if err != nil {
		return nil, err
	}
	following, err := s.summaries(ctx, user.Following)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load posts", err)
	}
	for _, p := range posts {
		p.User = user.Summary()
	}
	return &model.UserProfile{User: user, Followers: followers, Following: following, Posts: posts}, nil
}

func (s *UserService) GetFollowers(ctx context.Context, id primitive.ObjectID) ([]*model.UserSummary, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, user.Followers)
}

func (s *UserService) GetFollowing(ctx context.Context, id primitive.ObjectID) ([]*model.UserSummary, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, user.Following)
}

func (s *UserService) GetBlockedUsers(ctx context.Context, viewer *model.User) ([]*model.UserSummary, error) {
	return s.summaries(ctx, viewer.BlockedUsers)
}

// summaries 按 ids 的顺序展开用户，已不存在的用户被跳过
func (s *UserService) summaries(ctx context.Context, ids []primitive.ObjectID) ([]*model.UserSummary, error) {
	byID, err := loadUserSummaries(ctx, s.userRepo, ids)
	if err != nil {
		return nil, err
	}
	result := make([]*model.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

func (s *UserService) issueToken(user *model.User) (string, error) {
	token, err := util.GenerateToken(user.ID.Hex())
	if err != nil {
		util.Logger.Error("生成令牌失败", util.ID("user_id", user.ID), util.Error(err))
		return "", errors.Wrap(errors.ErrInternal, "failed to generate token", err)
	}
	return token, nil
}

func checkNewPassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return errors.New(errors.ErrWeakPassword, "password must be at least 8 characters")
	}
	if password != confirm {
		return errors.New(errors.ErrValidation, "passwords are not the same")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		util.Logger.Error("生成密码哈希失败", util.Error(err))
		return "", errors.Wrap(errors.ErrInternal, "failed to hash password", err)
	}
	return string(hashed), nil
}
