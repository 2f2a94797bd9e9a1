package service

import (
	"context"
	"encoding/json"

	"github.com/xxxsen/accord/internal/backend"
	"github.com/xxxsen/accord/internal/model"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
}

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, docID string) (*model.Document, error)
	GetByNameForIdentity(ctx context.Context, name, identity string) (*model.Document, error)
	ListForIdentity(ctx context.Context, identity string) ([]model.Document, error)
	ListByWitnessState(ctx context.Context, state model.WitnessState, limit uint) ([]string, error)
	UpdateContent(ctx context.Context, docID, content string, size, mtime int64) error
	ReplaceCollaborators(ctx context.Context, docID string, collaborators []string, mtime int64) error
	SetSignature(ctx context.Context, docID, identity string, signed bool, mtime int64) error
	TransitionWitness(ctx context.Context, docID string, from, to model.WitnessState, at int64) (bool, error)
	ListStaleRequested(ctx context.Context, before int64, limit uint) ([]string, error)
	ReclaimRequested(ctx context.Context, docID string, before, at int64) (bool, error)
	SetWitnessResult(ctx context.Context, docID string, state model.WitnessState, payload string) (bool, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, commentID string) (*model.Comment, error)
	ListByDocument(ctx context.Context, docID string) ([]model.Comment, error)
	Delete(ctx context.Context, commentID, author string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, recipient string, limit, offset uint) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipient string) (int, error)
	MarkRead(ctx context.Context, recipient, id string) error
	DeleteReadBefore(ctx context.Context, before int64) (int64, error)
}

type UnreadCache interface {
	Get(ctx context.Context, recipient string) (int, error)
	Set(ctx context.Context, recipient string, count int) error
	Invalidate(ctx context.Context, recipients ...string) error
}

type WitnessClient interface {
	Witness(ctx context.Context, fileName string) (json.RawMessage, error)
}

type AnalysisClient interface {
	Analyze(ctx context.Context, text, fileName string) (json.RawMessage, error)
	Chat(ctx context.Context, text string) (*backend.ChatResult, error)
}

type GenerationClient interface {
	Generate(ctx context.Context, kind string, answers map[string]interface{}) (json.RawMessage, error)
}

// ClauseAnalyzer is the optional LLM used when the backend chat is down.
type ClauseAnalyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}
