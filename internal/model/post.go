package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Media struct {
	URL string `json:"url" bson:"url"`
}

type Post struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID   `json:"userId" bson:"user"`
	User      *UserSummary         `json:"user,omitempty" bson:"-"`
	Media     []Media              `json:"media" bson:"media"`
	Caption   string               `json:"caption" bson:"caption"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

func (p *Post) LikeSet() []primitive.ObjectID { return p.Likes }

func (p *Post) OwnerID() primitive.ObjectID { return p.UserID }

// ActivityTarget 帖子点赞会通知作者
func (p *Post) ActivityTarget() (primitive.ObjectID, bool) { return p.ID, true }
