package collab

import (
	"github.com/xxxsen/accord/internal/model"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

// BuildForest groups a flat comment list into threads. Roots and replies keep
// the order of the input. A comment whose parent is not in the list is
// treated as a root, and so is the earliest member of a parent cycle, so
// every input comment appears exactly once.
func BuildForest(comments []model.Comment) []*model.CommentNode {
	nodes := make(map[string]*model.CommentNode, len(comments))
	ordered := make([]*model.CommentNode, 0, len(comments))
	index := make(map[*model.CommentNode]int, len(comments))
	for i, item := range comments {
		node := &model.CommentNode{Comment: item, Replies: []*model.CommentNode{}}
		ordered = append(ordered, node)
		index[node] = i
		if _, exists := nodes[item.ID]; !exists {
			nodes[item.ID] = node
		}
	}
	parents := make(map[*model.CommentNode]*model.CommentNode, len(comments))
	isRoot := make(map[*model.CommentNode]bool)
	for _, node := range ordered {
		if node.ParentID != "" && node.ParentID != node.ID {
			if parent, ok := nodes[node.ParentID]; ok && parent != node {
				parent.Replies = append(parent.Replies, node)
				parents[node] = parent
				continue
			}
		}
		isRoot[node] = true
	}

	reached := make(map[*model.CommentNode]bool, len(comments))
	for _, node := range ordered {
		if isRoot[node] {
			markReached(node, reached)
		}
	}
	for _, node := range ordered {
		if reached[node] {
			continue
		}
		head := cycleHead(node, parents, index)
		detach(parents[head], head)
		delete(parents, head)
		isRoot[head] = true
		markReached(head, reached)
	}

	roots := make([]*model.CommentNode, 0, len(isRoot))
	for _, node := range ordered {
		if isRoot[node] {
			roots = append(roots, node)
		}
	}
	return roots
}

// cycleHead follows parent links from an unreachable node until they loop and
// returns the loop member that comes first in the input.
func cycleHead(node *model.CommentNode, parents map[*model.CommentNode]*model.CommentNode, index map[*model.CommentNode]int) *model.CommentNode {
	seen := make(map[*model.CommentNode]bool)
	for !seen[node] {
		seen[node] = true
		node = parents[node]
	}
	head := node
	for cur := parents[node]; cur != node; cur = parents[cur] {
		if index[cur] < index[head] {
			head = cur
		}
	}
	return head
}

func detach(parent, child *model.CommentNode) {
	if parent == nil {
		return
	}
	for i, reply := range parent.Replies {
		if reply == child {
			parent.Replies = append(parent.Replies[:i], parent.Replies[i+1:]...)
			return
		}
	}
}

func markReached(node *model.CommentNode, reached map[*model.CommentNode]bool) {
	stack := []*model.CommentNode{node}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[cur] {
			continue
		}
		reached[cur] = true
		stack = append(stack, cur.Replies...)
	}
}

// Insert splices one freshly created comment into an existing forest without
// rebuilding it. Replies go to the end of their parent's replies; new roots,
// and replies whose parent is not present, are prepended.
func Insert(forest []*model.CommentNode, comment model.Comment) []*model.CommentNode {
	node := &model.CommentNode{Comment: comment, Replies: []*model.CommentNode{}}
	if comment.ParentID != "" {
		if parent := Find(forest, comment.ParentID); parent != nil {
			parent.Replies = append(parent.Replies, node)
			return forest
		}
	}
	return append([]*model.CommentNode{node}, forest...)
}

// Find does a depth-first lookup of a comment id.
func Find(forest []*model.CommentNode, id string) *model.CommentNode {
	stack := make([]*model.CommentNode, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.ID == id {
			return node
		}
		for i := len(node.Replies) - 1; i >= 0; i-- {
			stack = append(stack, node.Replies[i])
		}
	}
	return nil
}

// Count returns the number of nodes in the forest, replies included.
func Count(forest []*model.CommentNode) int {
	total := 0
	for _, node := range forest {
		total += 1 + Count(node.Replies)
	}
	return total
}

// ResolveAnchor returns the line a new comment is anchored to. Replies always
// inherit the parent's line, whatever the client sent.
func ResolveAnchor(lineNumber *int, parent *model.Comment) (int, error) {
	if parent != nil {
		return parent.LineNumber, nil
	}
	if lineNumber == nil || *lineNumber <= 0 {
		return 0, appErr.ErrInvalid
	}
	return *lineNumber, nil
}
