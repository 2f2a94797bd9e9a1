package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

func intPtr(v int) *int { return &v }

func TestReplyInheritsParentLine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seed("d1", "lease.txt", "a@x.com", "b@x.com")

	root, err := f.commentSvc.Add(ctx, "a@x.com", AddCommentInput{FileID: "d1", LineNumber: intPtr(42), Body: "is this fair?"})
	require.NoError(t, err)
	require.Equal(t, 42, root.LineNumber)
	require.Equal(t, "d1:/L42", root.CommentKey)

	reply, err := f.commentSvc.Add(ctx, "B@x.com", AddCommentInput{FileID: "d1", LineNumber: intPtr(7), Body: "yes", ParentID: root.ID})
	require.NoError(t, err)
	require.Equal(t, 42, reply.LineNumber)
	require.Equal(t, "b@x.com", reply.Author)

	forest, err := f.commentSvc.List(ctx, "b@x.com", "d1")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	require.Equal(t, root.ID, forest[0].ID)
	require.Len(t, forest[0].Replies, 1)
	require.Equal(t, reply.ID, forest[0].Replies[0].ID)
}

func TestRootCommentNeedsLine(t *testing.T) {
	f := newFixture()
	f.seed("d1", "lease.txt", "a@x.com")
	_, err := f.commentSvc.Add(context.Background(), "a@x.com", AddCommentInput{FileID: "d1", Body: "hm"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = f.commentSvc.Add(context.Background(), "a@x.com", AddCommentInput{FileID: "d1", LineNumber: intPtr(0), Body: "hm"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = f.commentSvc.Add(context.Background(), "a@x.com", AddCommentInput{FileID: "d1", LineNumber: intPtr(1), Body: "   "})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestParentFromOtherDocumentRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seed("d1", "lease.txt", "a@x.com")
	f.seed("d2", "sla.txt", "a@x.com")
	other, err := f.commentSvc.Add(ctx, "a@x.com", AddCommentInput{FileID: "d2", LineNumber: intPtr(1), Body: "elsewhere"})
	require.NoError(t, err)

	_, err = f.commentSvc.Add(ctx, "a@x.com", AddCommentInput{FileID: "d1", Body: "reply", ParentID: other.ID})
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = f.commentSvc.Add(ctx, "a@x.com", AddCommentInput{FileID: "d1", Body: "reply", ParentID: "ghost"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestCommentAccessRequiresParticipant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seed("d1", "lease.txt", "a@x.com")
	_, err := f.commentSvc.Add(ctx, "eve@x.com", AddCommentInput{FileID: "d1", LineNumber: intPtr(1), Body: "hi"})
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = f.commentSvc.List(ctx, "eve@x.com", "d1")
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = f.commentSvc.List(ctx, "a@x.com", "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDeleteCommentOrphansReplies(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seed("d1", "lease.txt", "a@x.com", "b@x.com")
	root, err := f.commentSvc.Add(ctx, "a@x.com", AddCommentInput{FileID: "d1", LineNumber: intPtr(3), Body: "root"})
	require.NoError(t, err)
	reply, err := f.commentSvc.Add(ctx, "b@x.com", AddCommentInput{FileID: "d1", Body: "reply", ParentID: root.ID})
	require.NoError(t, err)

	require.ErrorIs(t, f.commentSvc.Delete(ctx, "b@x.com", root.ID), appErr.ErrForbidden)
	require.NoError(t, f.commentSvc.Delete(ctx, "A@x.com", root.ID))

	forest, err := f.commentSvc.List(ctx, "a@x.com", "d1")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	require.Equal(t, reply.ID, forest[0].ID)
	require.Equal(t, 3, forest[0].LineNumber)
	require.Empty(t, forest[0].Replies)
}
