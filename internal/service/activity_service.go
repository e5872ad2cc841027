package service

import (
	"context"
	"novus-backend/internal/errors"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityService struct {
	activityRepo interfaces.ActivityRepository
	userRepo     interfaces.UserRepository
	postRepo     interfaces.PostRepository
}

func NewActivityService(activityRepo interfaces.ActivityRepository, userRepo interfaces.UserRepository, postRepo interfaces.PostRepository) *ActivityService {
	return &ActivityService{activityRepo: activityRepo, userRepo: userRepo, postRepo: postRepo}
}

// GetActivity 返回发给用户的通知，最新的在前
func (s *ActivityService) GetActivity(ctx context.Context, userID primitive.ObjectID) ([]*model.ActivityView, error) {
	activities, err := s.activityRepo.FindByRecipient(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load activity", err)
	}

	fromIDs := make([]primitive.ObjectID, 0, len(activities))
	var postIDs []primitive.ObjectID
	for _, a := range activities {
		fromIDs = append(fromIDs, a.FromUserID)
		if a.TargetPost != nil {
			postIDs = append(postIDs, *a.TargetPost)
		}
	}

	users, err := loadUserSummaries(ctx, s.userRepo, fromIDs)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.FindByIDs(ctx, model.UniqueIDs(postIDs))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load posts", err)
	}
	previews := make(map[primitive.ObjectID]*model.PostPreview, len(posts))
	for _, p := range posts {
		previews[p.ID] = &model.PostPreview{ID: p.ID, Media: p.Media}
	}

	views := make([]*model.ActivityView, 0, len(activities))
	for _, a := range activities {
		view := &model.ActivityView{Activity: a, FromUser: users[a.FromUserID]}
		if a.TargetPost != nil {
			view.TargetPost = previews[*a.TargetPost]
		}
		views = append(views, view)
	}
	return views, nil
}
