package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID            primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	PostID        primitive.ObjectID   `json:"post" bson:"post"`
	UserID        primitive.ObjectID   `json:"userId" bson:"user"`
	User          *UserSummary         `json:"user,omitempty" bson:"-"`
	Text          string               `json:"text" bson:"text"`
	Likes         []primitive.ObjectID `json:"likes" bson:"likes"`
	Depth         int                  `json:"depth" bson:"depth"`
	ParentComment *primitive.ObjectID  `json:"parentComment" bson:"parentComment"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updatedAt"`
}

func (c *Comment) LikeSet() []primitive.ObjectID { return c.Likes }

func (c *Comment) OwnerID() primitive.ObjectID { return c.UserID }

// ActivityTarget 评论点赞不产生通知
func (c *Comment) ActivityTarget() (primitive.ObjectID, bool) { return primitive.NilObjectID, false }

// CommentNode 是评论树中的一个节点
type CommentNode struct {
	Comment
	Depth   int            `json:"depth"`
	Replies []*CommentNode `json:"replies"`
}
