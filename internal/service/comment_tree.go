package service

import (
	"novus-backend/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BuildCommentTree 把按时间排序的扁平评论组装成回复树。
// 同级顺序与输入一致；父评论不在输入中的评论及其子树不会出现在结果里。
func BuildCommentTree(comments []*model.Comment) []*model.CommentNode {
	children := make(map[primitive.ObjectID][]*model.Comment, len(comments))
	for _, c := range comments {
		parent := primitive.NilObjectID
		if c.ParentComment != nil {
			parent = *c.ParentComment
		}
		children[parent] = append(children[parent], c)
	}
	return assembleReplies(children, primitive.NilObjectID, 0)
}

func assembleReplies(children map[primitive.ObjectID][]*model.Comment, parent primitive.ObjectID, depth int) []*model.CommentNode {
	list := children[parent]
	nodes := make([]*model.CommentNode, 0, len(list))
	for _, c := range list {
		nodes = append(nodes, &model.CommentNode{
			Comment: *c,
			Depth:   depth,
			Replies: assembleReplies(children, c.ID, depth+1),
		})
	}
	return nodes
}
