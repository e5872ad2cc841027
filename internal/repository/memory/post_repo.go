package memory

import (
	"context"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostRepository struct {
	mu    sync.RWMutex
	posts map[primitive.ObjectID]*model.Post
	order []primitive.ObjectID
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[primitive.ObjectID]*model.Post)}
}

var _ interfaces.PostRepository = (*PostRepository)(nil)

func clonePost(p *model.Post) *model.Post {
	cp := *p
	cp.Likes = cloneIDs(p.Likes)
	cp.Media = append([]model.Media{}, p.Media...)
	cp.User = nil
	return &cp
}

func (r *PostRepository) Create(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	r.posts[post.ID] = clonePost(post)
	r.order = append(r.order, post.ID)
	return nil
}

func (r *PostRepository) FindByID(_ context.Context, id primitive.ObjectID) (*model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r *PostRepository) Update(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[post.ID]; ok {
		p.Caption = post.Caption
		p.Media = append([]model.Media{}, post.Media...)
		p.UpdatedAt = time.Now()
	}
	return nil
}

func (r *PostRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

// filter 返回匹配的帖子，最新的在前
func (r *PostRepository) filter(match func(*model.Post) bool) []*model.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []*model.Post{}
	for i := len(r.order) - 1; i >= 0; i-- {
		if p, ok := r.posts[r.order[i]]; ok && match(p) {
			result = append(result, clonePost(p))
		}
	}
	return result
}

func (r *PostRepository) FindAll(_ context.Context, pageNum, pageSize int) ([]*model.Post, int, error) {
	all := r.filter(func(*model.Post) bool { return true })
	return page(all, pageNum, pageSize), len(all), nil
}

func (r *PostRepository) FindByUser(_ context.Context, userID primitive.ObjectID) ([]*model.Post, error) {
	return r.filter(func(p *model.Post) bool { return p.UserID == userID }), nil
}

func (r *PostRepository) FindLikedBy(_ context.Context, userID primitive.ObjectID) ([]*model.Post, error) {
	return r.filter(func(p *model.Post) bool { return model.ContainsID(p.Likes, userID) }), nil
}

func (r *PostRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*model.Post, error) {
	return r.filter(func(p *model.Post) bool { return model.ContainsID(ids, p.ID) }), nil
}

func (r *PostRepository) AddLike(_ context.Context, id, userID primitive.ObjectID) (int, error) {
	return r.changeLikes(id, func(likes []primitive.ObjectID) []primitive.ObjectID {
		return model.AddID(likes, userID)
	})
}

func (r *PostRepository) RemoveLike(_ context.Context, id, userID primitive.ObjectID) (int, error) {
	return r.changeLikes(id, func(likes []primitive.ObjectID) []primitive.ObjectID {
		return model.RemoveID(likes, userID)
	})
}

func (r *PostRepository) changeLikes(id primitive.ObjectID, change func([]primitive.ObjectID) []primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return 0, interfaces.ErrNotFound
	}
	p.Likes = change(p.Likes)
	return len(p.Likes), nil
}

func (r *PostRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts), nil
}
