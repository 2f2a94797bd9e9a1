package dbutil

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM documents WHERE owner=? AND name=?", []interface{}{"a", "b"})
	require.Equal(t, "SELECT id FROM documents WHERE owner=$1 AND name=$2", query)
	require.Equal(t, []interface{}{"a", "b"}, args)
}

func TestFinalizeRewritesMySQLLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM comments WHERE document_id=? LIMIT ?,?", []interface{}{"d", 10, 20})
	require.Equal(t, "SELECT id FROM comments WHERE document_id=$1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"d", 20, 10}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(errors.New("boom")))
}
