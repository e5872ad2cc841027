package memory

import (
	"context"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityRepository struct {
	mu         sync.RWMutex
	activities []*model.Activity
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

var _ interfaces.ActivityRepository = (*ActivityRepository)(nil)

func (r *ActivityRepository) Create(_ context.Context, a *model.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now()
	cp := *a
	r.activities = append(r.activities, &cp)
	return nil
}

// Matches 判断通知是否满足过滤条件
func Matches(a *model.Activity, f interfaces.ActivityFilter) bool {
	if a.Type != f.Type || a.FromUserID != f.FromUserID || a.ToUserID != f.ToUserID {
		return false
	}
	if f.TargetPost != nil {
		return a.TargetPost != nil && *a.TargetPost == *f.TargetPost
	}
	return true
}

func (r *ActivityRepository) removeWhere(drop func(*model.Activity) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.activities[:0]
	for _, a := range r.activities {
		if !drop(a) {
			kept = append(kept, a)
		}
	}
	r.activities = kept
}

func (r *ActivityRepository) DeleteMatching(_ context.Context, f interfaces.ActivityFilter) error {
	r.removeWhere(func(a *model.Activity) bool { return Matches(a, f) })
	return nil
}

func (r *ActivityRepository) DeleteByPost(_ context.Context, postID primitive.ObjectID) error {
	r.removeWhere(func(a *model.Activity) bool { return a.TargetPost != nil && *a.TargetPost == postID })
	return nil
}

// FindByRecipient 最新的在前
func (r *ActivityRepository) FindByRecipient(_ context.Context, userID primitive.ObjectID) ([]*model.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []*model.Activity{}
	for i := len(r.activities) - 1; i >= 0; i-- {
		if a := r.activities[i]; a.ToUserID == userID {
			cp := *a
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *ActivityRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.activities), nil
}
