package service

import (
	"context"
	stderrors "errors"
	"novus-backend/internal/errors"
	"novus-backend/internal/metrics"
	"novus-backend/internal/model"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EntityKind 是可点赞实体的种类
type EntityKind int

const (
	EntityPost EntityKind = iota
	EntityComment
)

func (k EntityKind) String() string {
	switch k {
	case EntityPost:
		return "post"
	case EntityComment:
		return "comment"
	default:
		return "unknown"
	}
}

// LikeResult 是点赞切换后的状态
type LikeResult struct {
	TotalLikes int  `json:"totalLikes"`
	Liked      bool `json:"liked"`
}

// FollowResult 是关注切换后的状态
type FollowResult struct {
	TotalFollowers int  `json:"totalFollowers"`
	TotalFollowing int  `json:"totalFollowing"`
	Following      bool `json:"following"`
}

// EngagementService 处理点赞、关注、拉黑以及随之产生的通知。
// 集合写入与通知写入是两次独立的存储操作，中途失败会留下不一致的通知。
type EngagementService struct {
	userRepo     interfaces.UserRepository
	postRepo     interfaces.PostRepository
	commentRepo  interfaces.CommentRepository
	activityRepo interfaces.ActivityRepository
	metrics      *metrics.Collector
}

func NewEngagementService(
	userRepo interfaces.UserRepository,
	postRepo interfaces.PostRepository,
	commentRepo interfaces.CommentRepository,
	activityRepo interfaces.ActivityRepository,
	collector *metrics.Collector,
) *EngagementService {
	return &EngagementService{
		userRepo:     userRepo,
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		activityRepo: activityRepo,
		metrics:      collector,
	}
}

// ToggleLike 切换 actor 对帖子或评论的点赞
func (s *EngagementService) ToggleLike(ctx context.Context, kind EntityKind, id, actor primitive.ObjectID) (*LikeResult, error) {
	entity, err := s.loadLikeable(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	liked := model.ContainsID(entity.LikeSet(), actor)
	total, err := s.changeLike(ctx, kind, id, actor, !liked)
	if err != nil {
		if stderrors.Is(err, interfaces.ErrNotFound) {
			return nil, notFoundFor(kind)
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to save likes", err)
	}

	if target, ok := entity.ActivityTarget(); ok && actor != entity.OwnerID() {
		filter := interfaces.ActivityFilter{
			Type:       model.ActivityLike,
			FromUserID: actor,
			ToUserID:   entity.OwnerID(),
			TargetPost: &target,
		}
		if err := s.mirrorActivity(ctx, filter, !liked); err != nil {
			return nil, err
		}
	}

	s.metrics.RecordToggle(kind.String(), !liked)
	util.Logger.Info("点赞状态已切换",
		zap.String("kind", kind.String()),
		util.ID("entity_id", id),
		util.ID("user_id", actor),
		zap.Bool("liked", !liked))

	return &LikeResult{TotalLikes: total, Liked: !liked}, nil
}

func (s *EngagementService) loadLikeable(ctx context.Context, kind EntityKind, id primitive.ObjectID) (model.Likeable, error) {
	switch kind {
	case EntityPost:
		post, err := s.postRepo.FindByID(ctx, id)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "failed to load post", err)
		}
		if post == nil {
			return nil, notFoundFor(kind)
		}
		return post, nil
	case EntityComment:
		comment, err := s.commentRepo.FindByID(ctx, id)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "failed to load comment", err)
		}
		if comment == nil {
			return nil, notFoundFor(kind)
		}
		return comment, nil
	default:
		return nil, errors.New(errors.ErrBadRequest, "unsupported entity kind")
	}
}

func notFoundFor(kind EntityKind) error {
	if kind == EntityComment {
		return errors.New(errors.ErrCommentNotFound, "comment not found")
	}
	return errors.New(errors.ErrPostNotFound, "post not found")
}

// changeLike 只增删 actor 这一个成员，其他用户的并发点赞不受影响
func (s *EngagementService) changeLike(ctx context.Context, kind EntityKind, id, actor primitive.ObjectID, like bool) (int, error) {
	switch {
	case kind == EntityComment && like:
		return s.commentRepo.AddLike(ctx, id, actor)
	case kind == EntityComment:
		return s.commentRepo.RemoveLike(ctx, id, actor)
	case like:
		return s.postRepo.AddLike(ctx, id, actor)
	default:
		return s.postRepo.RemoveLike(ctx, id, actor)
	}
}

// mirrorActivity 按切换后的状态创建或删除通知
func (s *EngagementService) mirrorActivity(ctx context.Context, filter interfaces.ActivityFilter, active bool) error {
	var err error
	if active {
		err = s.activityRepo.Create(ctx, &model.Activity{
			Type:       filter.Type,
			FromUserID: filter.FromUserID,
			ToUserID:   filter.ToUserID,
			TargetPost: filter.TargetPost,
		})
	} else {
		err = s.activityRepo.DeleteMatching(ctx, filter)
	}
	if err != nil {
		util.Logger.Warn("通知写入失败，集合已更新",
			zap.String("type", string(filter.Type)),
			util.ID("from_user", filter.FromUserID),
			util.Error(err))
		return errors.Wrap(errors.ErrDatabase, "failed to update activity", err)
	}
	return nil
}

// ToggleFollow 切换 actor 对 target 的关注
func (s *EngagementService) ToggleFollow(ctx context.Context, actor, target primitive.ObjectID) (*FollowResult, error) {
	if actor == target {
		return nil, errors.New(errors.ErrSelfAction, "you can't follow yourself")
	}

	me, err := s.loadPair(ctx, actor, target)
	if err != nil {
		return nil, err
	}

	following := model.ContainsID(me.Following, target)
	var counts *interfaces.FollowCounts
	if following {
		counts, err = s.userRepo.RemoveFollow(ctx, actor, target)
	} else {
		counts, err = s.userRepo.AddFollow(ctx, actor, target)
	}
	if err != nil {
		return nil, relationError(err, "failed to save relations")
	}

	filter := interfaces.ActivityFilter{Type: model.ActivityFollow, FromUserID: actor, ToUserID: target}
	if err := s.mirrorActivity(ctx, filter, !following); err != nil {
		return nil, err
	}

	s.metrics.RecordToggle("follow", !following)
	return &FollowResult{
		TotalFollowers: counts.Followers,
		TotalFollowing: counts.Following,
		Following:      !following,
	}, nil
}

// ToggleBlock 切换拉黑。拉黑会解除双方的关注关系，取消拉黑不会恢复。
// 返回切换后是否处于拉黑状态。
func (s *EngagementService) ToggleBlock(ctx context.Context, actor, target primitive.ObjectID) (bool, error) {
	if actor == target {
		return false, errors.New(errors.ErrSelfAction, "you can't block yourself")
	}

	me, err := s.loadPair(ctx, actor, target)
	if err != nil {
		return false, err
	}

	if me.HasBlocked(target) {
		if err := s.userRepo.Unblock(ctx, actor, target); err != nil {
			return false, relationError(err, "failed to unblock user")
		}
		util.Logger.Info("已取消拉黑", util.ID("user_id", actor), util.ID("target_id", target))
		return false, nil
	}

	if err := s.userRepo.Block(ctx, actor, target); err != nil {
		return false, relationError(err, "failed to block user")
	}
	util.Logger.Info("已拉黑用户", util.ID("user_id", actor), util.ID("target_id", target))
	return true, nil
}

// loadPair 确认 target 存在且活跃，返回 actor 的当前状态
func (s *EngagementService) loadPair(ctx context.Context, actor, target primitive.ObjectID) (*model.User, error) {
	other, err := s.userRepo.FindByID(ctx, target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load user", err)
	}
	if other == nil || !other.Active {
		return nil, errors.New(errors.ErrUserNotFound, "user not found")
	}
	me, err := s.userRepo.FindByID(ctx, actor)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load user", err)
	}
	if me == nil {
		return nil, errors.New(errors.ErrUserNotFound, "user not found")
	}
	return me, nil
}

func relationError(err error, msg string) error {
	if stderrors.Is(err, interfaces.ErrNotFound) {
		return errors.New(errors.ErrUserNotFound, "user not found")
	}
	return errors.Wrap(errors.ErrDatabase, msg, err)
}
