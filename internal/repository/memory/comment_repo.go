package memory

import (
	"context"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommentRepository struct {
	mu       sync.RWMutex
	comments map[primitive.ObjectID]*model.Comment
	order    []primitive.ObjectID
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{comments: make(map[primitive.ObjectID]*model.Comment)}
}

var _ interfaces.CommentRepository = (*CommentRepository)(nil)

func cloneComment(c *model.Comment) *model.Comment {
	cp := *c
	cp.Likes = cloneIDs(c.Likes)
	cp.User = nil
	return &cp
}

func (r *CommentRepository) Create(_ context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.comments[c.ID] = cloneComment(c)
	r.order = append(r.order, c.ID)
	return nil
}

func (r *CommentRepository) FindByID(_ context.Context, id primitive.ObjectID) (*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, nil
	}
	return cloneComment(c), nil
}

// FindByPost 按创建时间升序返回
func (r *CommentRepository) FindByPost(_ context.Context, postID primitive.ObjectID) ([]*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []*model.Comment{}
	for _, id := range r.order {
		if c, ok := r.comments[id]; ok && c.PostID == postID {
			result = append(result, cloneComment(c))
		}
	}
	return result, nil
}

func (r *CommentRepository) Update(_ context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.comments[c.ID]; ok {
		existing.Text = c.Text
		existing.UpdatedAt = time.Now()
	}
	return nil
}

func (r *CommentRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.comments, id)
	return nil
}

func (r *CommentRepository) DeleteByPost(_ context.Context, postID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.comments {
		if c.PostID == postID {
			delete(r.comments, id)
		}
	}
	return nil
}

func (r *CommentRepository) AddLike(_ context.Context, id, userID primitive.ObjectID) (int, error) {
	return r.changeLikes(id, func(likes []primitive.ObjectID) []primitive.ObjectID {
		return model.AddID(likes, userID)
	})
}

func (r *CommentRepository) RemoveLike(_ context.Context, id, userID primitive.ObjectID) (int, error) {
	return r.changeLikes(id, func(likes []primitive.ObjectID) []primitive.ObjectID {
		return model.RemoveID(likes, userID)
	})
}

func (r *CommentRepository) changeLikes(id primitive.ObjectID, change func([]primitive.ObjectID) []primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return 0, interfaces.ErrNotFound
	}
	c.Likes = change(c.Likes)
	return len(c.Likes), nil
}

func (r *CommentRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.comments), nil
}
