package service

import (
	"context"
	"novus-backend/internal/errors"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxCommentLength = 100

type CommentService struct {
	commentRepo interfaces.CommentRepository
	postRepo    interfaces.PostRepository
	userRepo    interfaces.UserRepository
}

func NewCommentService(commentRepo interfaces.CommentRepository, postRepo interfaces.PostRepository, userRepo interfaces.UserRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo, userRepo: userRepo}
}

// GetPostComments 返回帖子的评论树
func (s *CommentService) GetPostComments(ctx context.Context, postID primitive.ObjectID) ([]*model.CommentNode, error) {
	comments, err := s.commentRepo.FindByPost(ctx, postID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load comments", err)
	}
	if err := s.populate(ctx, comments...); err != nil {
		return nil, err
	}
	return BuildCommentTree(comments), nil
}

// CreateComment 创建评论，parent 不为空时作为回复，深度为父评论深度加一
func (s *CommentService) CreateComment(ctx context.Context, author, postID primitive.ObjectID, parent *primitive.ObjectID, text string) (*model.Comment, error) {
	text, err := checkCommentText(text)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load post", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "post not found")
	}

	comment := &model.Comment{PostID: postID, UserID: author, Text: text}
	if parent != nil {
		p, err := s.findComment(ctx, *parent)
		if err != nil {
			if errors.Is(err, errors.ErrCommentNotFound) {
				return nil, errors.New(errors.ErrCommentNotFound, "parent comment not found")
			}
			return nil, err
		}
		if p.PostID != postID {
			return nil, errors.New(errors.ErrCommentNotFound, "parent comment not found on this post")
		}
		parentID := p.ID
		comment.ParentComment = &parentID
		comment.Depth = p.Depth + 1
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create comment", err)
	}
	if err := s.populate(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) GetComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	comment, err := s.findComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// UpdateComment 只有作者可以修改
func (s *CommentService) UpdateComment(ctx context.Context, actor, id primitive.ObjectID, text string) (*model.Comment, error) {
	comment, err := s.ownedComment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if comment.Text, err = checkCommentText(text); err != nil {
		return nil, err
	}
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update comment", err)
	}
	if err := s.populate(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment 只有作者可以删除，回复不会级联删除
func (s *CommentService) DeleteComment(ctx context.Context, actor, id primitive.ObjectID) error {
	if _, err := s.ownedComment(ctx, actor, id); err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to delete comment", err)
	}
	return nil
}

func (s *CommentService) findComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load comment", err)
	}
	if comment == nil {
		return nil, errors.New(errors.ErrCommentNotFound, "comment not found")
	}
	return comment, nil
}

func (s *CommentService) ownedComment(ctx context.Context, actor, id primitive.ObjectID) (*model.Comment, error) {
	comment, err := s.findComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor {
		return nil, errors.New(errors.ErrForbidden, "you are not allowed to do this action")
	}
	return comment, nil
}

func (s *CommentService) populate(ctx context.Context, comments ...*model.Comment) error {
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	users, err := loadUserSummaries(ctx, s.userRepo, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		c.User = users[c.UserID]
	}
	return nil
}

func checkCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxCommentLength {
		return "", errors.New(errors.ErrValidation, "comment must be between 1 and 100 characters")
	}
	return text, nil
}
