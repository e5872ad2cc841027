package service

import (
	"context"
	"novus-backend/internal/errors"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AdminService 提供管理员使用的用户管理和系统统计
type AdminService struct {
	userRepo interfaces.UserRepository
	stats    *StatsService
}

func NewAdminService(userRepo interfaces.UserRepository, stats *StatsService) *AdminService {
	return &AdminService{userRepo: userRepo, stats: stats}
}

// 用户管理
func (s *AdminService) GetUsers(ctx context.Context, page, pageSize int) ([]*model.User, int, error) {
	users, total, err := s.userRepo.FindAll(ctx, page, pageSize)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabase, "failed to list users", err)
	}
	return users, total, nil
}

func (s *AdminService) UpdateUserRole(ctx context.Context, userID primitive.ObjectID, role string) (*model.User, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, errors.New(errors.ErrValidation, "invalid role")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load user", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "user not found")
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update role", err)
	}
	util.Logger.Info("用户角色已更新", util.ID("user_id", userID), zap.String("role", role))
	return user, nil
}

// 系统管理
func (s *AdminService) GetSystemStats(ctx context.Context) (*model.SystemStats, error) {
	return s.stats.GetSystemStats(ctx)
}
