package service

import (
	"context"
	"novus-backend/internal/errors"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
)

// ConnectionCounter 报告当前的实时连接数
type ConnectionCounter interface {
	ConnectionCount() int
}

type StatsService struct {
	userRepo     interfaces.UserRepository
	postRepo     interfaces.PostRepository
	commentRepo  interfaces.CommentRepository
	chatRepo     interfaces.ChatRepository
	activityRepo interfaces.ActivityRepository
	connections  ConnectionCounter
	analytics    *errors.ErrorAnalytics
}

func NewStatsService(
	userRepo interfaces.UserRepository,
	postRepo interfaces.PostRepository,
	commentRepo interfaces.CommentRepository,
	chatRepo interfaces.ChatRepository,
	activityRepo interfaces.ActivityRepository,
	connections ConnectionCounter,
	analytics *errors.ErrorAnalytics,
) *StatsService {
	return &StatsService{
		userRepo:     userRepo,
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		chatRepo:     chatRepo,
		activityRepo: activityRepo,
		connections:  connections,
		analytics:    analytics,
	}
}

func (s *StatsService) GetSystemStats(ctx context.Context) (*model.SystemStats, error) {
	stats := &model.SystemStats{}

	counters := []struct {
		count func(context.Context) (int, error)
		dst   *int
	}{
		{s.userRepo.Count, &stats.TotalUsers},
		{s.postRepo.Count, &stats.TotalPosts},
		{s.commentRepo.Count, &stats.TotalComments},
		{s.chatRepo.CountChats, &stats.TotalChats},
		{s.activityRepo.Count, &stats.TotalActivities},
	}
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "failed to collect stats", err)
		}
		*c.dst = n
	}

	if s.connections != nil {
		stats.ActiveConnections = s.connections.ConnectionCount()
	}
	if s.analytics != nil {
		stats.Errors = s.analytics.GetStats()
	}
	return stats, nil
}
