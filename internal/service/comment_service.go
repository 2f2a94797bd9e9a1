package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xxxsen/accord/internal/collab"
	"github.com/xxxsen/accord/internal/model"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
	"github.com/xxxsen/accord/internal/pkg/timeutil"
)

type CommentService struct {
	comments CommentStore
	docs     DocumentStore
	validate *validator.Validate
}

type AddCommentInput struct {
	FileID     string `json:"fileId" validate:"required"`
	LineNumber *int   `json:"lineNumber"`
	Body       string `json:"comment" validate:"required"`
	ParentID   string `json:"parentId"`
}

func NewCommentService(comments CommentStore, docs DocumentStore) *CommentService {
	return &CommentService{comments: comments, docs: docs, validate: newValidator()}
}

// List returns the threaded comments of a document, newest roots first.
func (s *CommentService) List(ctx context.Context, identity, fileID string) ([]*model.CommentNode, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("%w: fileId is required", appErr.ErrInvalid)
	}
	if _, err := s.participantDocument(ctx, identity, fileID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByDocument(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return collab.BuildForest(comments), nil
}

// Add stores a top-level comment or a reply. Replies take the line number of
// their parent regardless of what the client sent.
func (s *CommentService) Add(ctx context.Context, identity string, input AddCommentInput) (*model.Comment, error) {
	input.Body = strings.TrimSpace(input.Body)
	input.ParentID = strings.TrimSpace(input.ParentID)
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	if _, err := s.participantDocument(ctx, identity, input.FileID); err != nil {
		return nil, err
	}
	var parent *model.Comment
	if input.ParentID != "" {
		p, err := s.comments.GetByID(ctx, input.ParentID)
		if err != nil {
			return nil, err
		}
		if p.DocumentID != input.FileID {
			return nil, appErr.ErrNotFound
		}
		parent = p
	}
	line, err := collab.ResolveAnchor(input.LineNumber, parent)
	if err != nil {
		return nil, fmt.Errorf("%w: lineNumber must be a positive line", err)
	}
	comment := &model.Comment{
		ID:         newID(),
		DocumentID: input.FileID,
		Author:     collab.NormalizeIdentity(identity),
		Body:       input.Body,
		LineNumber: line,
		ParentID:   input.ParentID,
		CommentKey: CommentKey(input.FileID, line),
		Ctime:      timeutil.NowUnix(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Delete removes a comment written by identity. Its replies stay and are
// shown as roots from then on.
func (s *CommentService) Delete(ctx context.Context, identity, commentID string) error {
	if strings.TrimSpace(commentID) == "" {
		return fmt.Errorf("%w: commentId is required", appErr.ErrInvalid)
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if !collab.SameIdentity(comment.Author, identity) {
		return appErr.ErrForbidden
	}
	return s.comments.Delete(ctx, commentID, comment.Author)
}

func (s *CommentService) participantDocument(ctx context.Context, identity, fileID string) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	if !collab.IsParticipant(doc.Owner, doc.Collaborators, identity) {
		return nil, appErr.ErrForbidden
	}
	return doc, nil
}

func CommentKey(fileID string, line int) string {
	return fmt.Sprintf("%s:/L%d", fileID, line)
}
