package service

import (
	"context"
	"mime/multipart"
	"strings"
	"sync"

	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/repository/memory"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 内存仓库加上测试用的辅助方法

type memUsers struct {
	*memory.UserRepository
}

func newMemUsers() *memUsers {
	return &memUsers{memory.NewUserRepository()}
}

func (r *memUsers) add(name string) *model.User {
	u := &model.User{
		ID:       primitive.NewObjectID(),
		FullName: strings.ToUpper(name[:1]) + name[1:],
		UserName: name,
		Email:    name + "@example.com",
		Role:     model.RoleUser,
		Active:   true,
	}
	_ = r.Create(context.Background(), u)
	return u
}

func (r *memUsers) get(id primitive.ObjectID) *model.User {
	u, _ := r.FindByID(context.Background(), id)
	return u
}

type memPosts struct {
	*memory.PostRepository
}

func newMemPosts() *memPosts {
	return &memPosts{memory.NewPostRepository()}
}

func (r *memPosts) get(id primitive.ObjectID) *model.Post {
	p, _ := r.FindByID(context.Background(), id)
	return p
}

func (r *memPosts) size() int {
	n, _ := r.Count(context.Background())
	return n
}

type memComments struct {
	*memory.CommentRepository
}

func newMemComments() *memComments {
	return &memComments{memory.NewCommentRepository()}
}

func (r *memComments) size() int {
	n, _ := r.Count(context.Background())
	return n
}

type memActivities struct {
	*memory.ActivityRepository
}

func newMemActivities() *memActivities {
	return &memActivities{memory.NewActivityRepository()}
}

func (r *memActivities) size() int {
	n, _ := r.Count(context.Background())
	return n
}

// to 返回发给 userID 的通知，最新的在前
func (r *memActivities) to(userID primitive.ObjectID) []*model.Activity {
	list, _ := r.FindByRecipient(context.Background(), userID)
	return list
}

func (r *memActivities) count(f interfaces.ActivityFilter) int {
	n := 0
	for _, a := range r.to(f.ToUserID) {
		if memory.Matches(a, f) {
			n++
		}
	}
	return n
}

type memChats struct {
	*memory.ChatRepository
}

func newMemChats() *memChats {
	return &memChats{memory.NewChatRepository()}
}

func (r *memChats) size() int {
	n, _ := r.CountChats(context.Background())
	return n
}

type memStorage struct {
	mu       sync.Mutex
	uploaded []string
}

func (s *memStorage) UploadFile(_ context.Context, file *multipart.FileHeader, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded = append(s.uploaded, path)
	return "https://cdn.example.com/" + path, nil
}

// barrier 在 n 次 wait 之后一起放行，之后的 wait 直接返回
type barrier struct {
	mu      sync.Mutex
	waiting int
	release chan struct{}
}

func newBarrier(n int) *barrier {
	return &barrier{waiting: n, release: make(chan struct{})}
}

func (b *barrier) wait() {
	b.mu.Lock()
	if b.waiting > 0 {
		b.waiting--
		if b.waiting == 0 {
			close(b.release)
		}
	}
	b.mu.Unlock()
	<-b.release
}

// 以下包装让并发的切换操作都读完旧状态之后才开始写

type syncedPosts struct {
	*memPosts
	b *barrier
}

func (r *syncedPosts) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	p, err := r.memPosts.FindByID(ctx, id)
	r.b.wait()
	return p, err
}

type syncedComments struct {
	*memComments
	b *barrier
}

func (r *syncedComments) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	c, err := r.memComments.FindByID(ctx, id)
	r.b.wait()
	return c, err
}

// syncedUsers 只在读取 on 中的用户时等待
type syncedUsers struct {
	*memUsers
	b  *barrier
	on map[primitive.ObjectID]bool
}

func (r *syncedUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	u, err := r.memUsers.FindByID(ctx, id)
	if r.on[id] {
		r.b.wait()
	}
	return u, err
}
