package memory

import (
	"context"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*model.User
	order []primitive.ObjectID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[primitive.ObjectID]*model.User)}
}

var _ interfaces.UserRepository = (*UserRepository)(nil)

func cloneUser(u *model.User) *model.User {
	cp := *u
	cp.Followers = cloneIDs(u.Followers)
	cp.Following = cloneIDs(u.Following)
	cp.BlockedUsers = cloneIDs(u.BlockedUsers)
	return &cp
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.UserName == user.UserName {
			return interfaces.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = cloneUser(user)
	r.order = append(r.order, user.ID)
	return nil
}

func (r *UserRepository) findFirst(match func(*model.User) bool) *model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if u := r.users[id]; match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findFirst(func(u *model.User) bool { return u.ID == id }), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.findFirst(func(u *model.User) bool { return u.Email == email }), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.findFirst(func(u *model.User) bool { return u.UserName == username }), nil
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*model.User, 0, len(ids))
	for _, id := range model.UniqueIDs(ids) {
		if u, ok := r.users[id]; ok {
			result = append(result, cloneUser(u))
		}
	}
	return result, nil
}

// Update 只写资料字段，关系集合由 AddFollow/Block 等按成员维护
func (r *UserRepository) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return nil
	}
	for id, u := range r.users {
		if id != user.ID && (u.Email == user.Email || u.UserName == user.UserName) {
			return interfaces.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	cp := cloneUser(user)
	cp.Followers, cp.Following, cp.BlockedUsers = existing.Followers, existing.Following, existing.BlockedUsers
	cp.CreatedAt = existing.CreatedAt
	r.users[user.ID] = cp
	return nil
}

func (r *UserRepository) AddFollow(_ context.Context, actor, target primitive.ObjectID) (*interfaces.FollowCounts, error) {
	return r.changePair(actor, target, func(me, other *model.User) {
		me.Following = model.AddID(me.Following, target)
		other.Followers = model.AddID(other.Followers, actor)
	})
}

func (r *UserRepository) RemoveFollow(_ context.Context, actor, target primitive.ObjectID) (*interfaces.FollowCounts, error) {
	return r.changePair(actor, target, func(me, other *model.User) {
		me.Following = model.RemoveID(me.Following, target)
		other.Followers = model.RemoveID(other.Followers, actor)
	})
}

func (r *UserRepository) Block(_ context.Context, actor, target primitive.ObjectID) error {
	_, err := r.changePair(actor, target, func(me, other *model.User) {
		me.BlockedUsers = model.AddID(me.BlockedUsers, target)
		me.Following = model.RemoveID(me.Following, target)
		me.Followers = model.RemoveID(me.Followers, target)
		other.Following = model.RemoveID(other.Following, actor)
		other.Followers = model.RemoveID(other.Followers, actor)
	})
	return err
}

func (r *UserRepository) Unblock(_ context.Context, actor, target primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	me, ok := r.users[actor]
	if !ok {
		return interfaces.ErrNotFound
	}
	me.BlockedUsers = model.RemoveID(me.BlockedUsers, target)
	return nil
}

// changePair 在同一把锁内修改两个用户的关系集合
func (r *UserRepository) changePair(actor, target primitive.ObjectID, change func(me, other *model.User)) (*interfaces.FollowCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	me, ok := r.users[actor]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	other, ok := r.users[target]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	change(me, other)
	return &interfaces.FollowCounts{Followers: len(other.Followers), Following: len(me.Following)}, nil
}

// list 返回匹配的活跃用户，最新注册的在前
func (r *UserRepository) list(match func(*model.User) bool, pageNum, pageSize int) ([]*model.User, int, error) {
	r.mu.RLock()
	var all []*model.User
	for i := len(r.order) - 1; i >= 0; i-- {
		if u := r.users[r.order[i]]; u.Active && match(u) {
			all = append(all, cloneUser(u))
		}
	}
	r.mu.RUnlock()
	return page(all, pageNum, pageSize), len(all), nil
}

func (r *UserRepository) FindAll(_ context.Context, pageNum, pageSize int) ([]*model.User, int, error) {
	return r.list(func(*model.User) bool { return true }, pageNum, pageSize)
}

func (r *UserRepository) Search(_ context.Context, query string, pageNum, pageSize int) ([]*model.User, int, error) {
	q := strings.ToLower(query)
	return r.list(func(u *model.User) bool {
		return strings.Contains(strings.ToLower(u.FullName), q) || strings.Contains(strings.ToLower(u.UserName), q)
	}, pageNum, pageSize)
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}
