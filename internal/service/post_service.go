package service

import (
	"context"
	"mime/multipart"
	"novus-backend/internal/errors"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/util"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	minCaptionLength = 3
	maxCaptionLength = 2200
)

// PostInput 是创建或修改帖子的数据，Caption 为 nil 表示不修改
type PostInput struct {
	Caption *string
	Files   []*multipart.FileHeader
}

type PostService struct {
	postRepo     interfaces.PostRepository
	commentRepo  interfaces.CommentRepository
	activityRepo interfaces.ActivityRepository
	userRepo     interfaces.UserRepository
	uploader     *MediaUploader
}

func NewPostService(
	postRepo interfaces.PostRepository,
	commentRepo interfaces.CommentRepository,
	activityRepo interfaces.ActivityRepository,
	userRepo interfaces.UserRepository,
	uploader *MediaUploader,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		uploader:     uploader,
	}
}

func (s *PostService) GetAllPosts(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	posts, total, err := s.postRepo.FindAll(ctx, page, pageSize)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabase, "failed to list posts", err)
	}
	if err := s.populate(ctx, posts...); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *PostService) GetPost(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetLikedPosts 获取用户点赞过的帖子
func (s *PostService) GetLikedPosts(ctx context.Context, userID primitive.ObjectID) ([]*model.Post, error) {
	posts, err := s.postRepo.FindLikedBy(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list liked posts", err)
	}
	if err := s.populate(ctx, posts...); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost 创建帖子，说明和媒体至少要有一项
func (s *PostService) CreatePost(ctx context.Context, owner primitive.ObjectID, in PostInput) (*model.Post, error) {
	post := &model.Post{UserID: owner}
	if in.Caption != nil {
		caption, err := checkCaption(*in.Caption)
		if err != nil {
			return nil, err
		}
		post.Caption = caption
	}
	if post.Caption == "" && len(in.Files) == 0 {
		return nil, errors.New(errors.ErrValidation, "a post needs a caption or media")
	}

	urls, err := s.uploader.Upload(ctx, "posts", owner, in.Files)
	if err != nil {
		return nil, err
	}
	post.Media = toMedia(urls)

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create post", err)
	}
	if err := s.populate(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost 只有作者可以修改；上传了新媒体时替换原有媒体
func (s *PostService) UpdatePost(ctx context.Context, actor, id primitive.ObjectID, in PostInput) (*model.Post, error) {
	post, err := s.ownedPost(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Caption != nil {
		caption, err := checkCaption(*in.Caption)
		if err != nil {
			return nil, err
		}
		post.Caption = caption
	}
	if len(in.Files) > 0 {
		urls, err := s.uploader.Upload(ctx, "posts", actor, in.Files)
		if err != nil {
			return nil, err
		}
		post.Media = toMedia(urls)
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update post", err)
	}
	if err := s.populate(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost 删除帖子及其评论和相关通知，三步之间没有事务
func (s *PostService) DeletePost(ctx context.Context, actor, id primitive.ObjectID) error {
	if _, err := s.ownedPost(ctx, actor, id); err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to delete post", err)
	}
	if err := s.commentRepo.DeleteByPost(ctx, id); err != nil {
		util.Logger.Warn("删除帖子评论失败", util.ID("post_id", id), util.Error(err))
	}
	if err := s.activityRepo.DeleteByPost(ctx, id); err != nil {
		util.Logger.Warn("删除帖子通知失败", util.ID("post_id", id), util.Error(err))
	}
	return nil
}

func (s *PostService) findPost(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load post", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "no post found with this ID")
	}
	return post, nil
}

func (s *PostService) ownedPost(ctx context.Context, actor, id primitive.ObjectID) (*model.Post, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != actor {
		return nil, errors.New(errors.ErrForbidden, "you are not allowed to do this action")
	}
	return post, nil
}

// populate 展开帖子作者
func (s *PostService) populate(ctx context.Context, posts ...*model.Post) error {
	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	users, err := loadUserSummaries(ctx, s.userRepo, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.User = users[p.UserID]
	}
	return nil
}

func checkCaption(caption string) (string, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return "", nil
	}
	n := utf8.RuneCountInString(caption)
	if n < minCaptionLength || n > maxCaptionLength {
		return "", errors.New(errors.ErrValidation, "caption must be between 3 and 2200 characters")
	}
	return caption, nil
}

func toMedia(urls []string) []model.Media {
	media := make([]model.Media, 0, len(urls))
	for _, u := range urls {
		media = append(media, model.Media{URL: u})
	}
	return media
}
