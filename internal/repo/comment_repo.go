package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/accord/internal/model"
	"github.com/xxxsen/accord/internal/pkg/dbutil"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

var commentFields = []string{"id", "document_id", "author", "body", "line_number", "parent_id", "comment_key", "ctime"}

type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

func (r *CommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	data := map[string]interface{}{
		"id":          comment.ID,
		"document_id": comment.DocumentID,
		"author":      comment.Author,
		"body":        comment.Body,
		"line_number": comment.LineNumber,
		"parent_id":   comment.ParentID,
		"comment_key": comment.CommentKey,
		"ctime":       comment.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("comments", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *CommentRepo) GetByID(ctx context.Context, commentID string) (*model.Comment, error) {
	comments, err := r.query(ctx, map[string]interface{}{"id": commentID})
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &comments[0], nil
}

// ListByDocument returns every comment of the document, newest first.
func (r *CommentRepo) ListByDocument(ctx context.Context, docID string) ([]model.Comment, error) {
	return r.query(ctx, map[string]interface{}{
		"document_id": docID,
		"_orderby":    "ctime desc, id desc",
	})
}

func (r *CommentRepo) Delete(ctx context.Context, commentID, author string) error {
	sqlStr, args, err := builder.BuildDelete("comments", map[string]interface{}{
		"id":     commentID,
		"author": author,
	})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffected(ctx, r.db, sqlStr, args)
}

func (r *CommentRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Comment, error) {
	sqlStr, args, err := builder.BuildSelect("comments", where, commentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Author, &c.Body, &c.LineNumber, &c.ParentID, &c.CommentKey, &c.Ctime); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
