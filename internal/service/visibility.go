package service

import (
	"context"
	"novus-backend/internal/errors"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VisibleTo 去掉 viewer 黑名单中的用户，在查询之后执行
func VisibleTo(viewer *model.User, users []*model.User) []*model.User {
	if viewer == nil || len(viewer.BlockedUsers) == 0 {
		return users
	}
	result := make([]*model.User, 0, len(users))
	for _, u := range users {
		if !viewer.HasBlocked(u.ID) {
			result = append(result, u)
		}
	}
	return result
}

// loadUserSummaries 批量展开用户引用
func loadUserSummaries(ctx context.Context, repo interfaces.UserRepository, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.UserSummary, error) {
	result := make(map[primitive.ObjectID]*model.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	users, err := repo.FindByIDs(ctx, model.UniqueIDs(ids))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load users", err)
	}
	for _, u := range users {
		result[u.ID] = u.Summary()
	}
	return result, nil
}
