package model

type Comment struct {
	ID         string `json:"id"`
	DocumentID string `json:"fileId"`
	Author     string `json:"author"`
	Body       string `json:"comment"`
	LineNumber int    `json:"lineNumber"`
	ParentID   string `json:"parentId,omitempty"`
	CommentKey string `json:"commentKey"`
	Ctime      int64  `json:"createdAt"`
}

// CommentNode is a comment decorated with its replies for threaded display.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}
