// Package memory 提供仓库接口的内存实现，用于本地开发和测试，进程退出后数据丢失。
package memory

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store 汇总所有内存仓库
type Store struct {
	Users      *UserRepository
	Posts      *PostRepository
	Comments   *CommentRepository
	Activities *ActivityRepository
	Chats      *ChatRepository
}

func NewStore() *Store {
	return &Store{
		Users:      NewUserRepository(),
		Posts:      NewPostRepository(),
		Comments:   NewCommentRepository(),
		Activities: NewActivityRepository(),
		Chats:      NewChatRepository(),
	}
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID{}, ids...)
}

// page 截取第 page 页，page 从 1 开始
func page[T any](all []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
