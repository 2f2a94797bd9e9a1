package collab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/accord/internal/model"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

func TestParticipants(t *testing.T) {
	got := Participants("A@x.com", []string{"b@x.com", "a@x.com", " B@X.com ", ""})
	require.Equal(t, []string{"a@x.com", "b@x.com"}, got)
}

func TestAllSigned(t *testing.T) {
	cases := []struct {
		name   string
		collab []string
		sigs   map[string]bool
		want   bool
	}{
		{name: "owner only signed", collab: nil, sigs: map[string]bool{"a@x.com": true}, want: true},
		{name: "collaborator pending", collab: []string{"b@x.com"}, sigs: map[string]bool{"a@x.com": true, "b@x.com": false}, want: false},
		{name: "missing entry", collab: []string{"b@x.com"}, sigs: map[string]bool{"a@x.com": true}, want: false},
		{name: "all signed", collab: []string{"b@x.com"}, sigs: map[string]bool{"a@x.com": true, "b@x.com": true}, want: true},
		{name: "stale entry ignored", collab: []string{"b@x.com"}, sigs: map[string]bool{"a@x.com": true, "b@x.com": true, "gone@x.com": false}, want: true},
		{name: "owner duplicated as collaborator", collab: []string{"a@x.com"}, sigs: map[string]bool{"a@x.com": true}, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, AllSigned("a@x.com", tc.collab, tc.sigs))
		})
	}
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, model.DocumentStatusPending, StatusOf("a@x.com", []string{"b@x.com"}, map[string]bool{"a@x.com": true}))
	require.Equal(t, model.DocumentStatusExecuted, StatusOf("a@x.com", nil, map[string]bool{"a@x.com": true}))
}

func TestResetSignatures(t *testing.T) {
	got := ResetSignatures("a@x.com", []string{"b@x.com", "c@x.com"}, map[string]bool{"a@x.com": true, "b@x.com": true, "old@x.com": true})
	require.Equal(t, map[string]bool{"a@x.com": false, "b@x.com": false, "c@x.com": false, "old@x.com": false}, got)
}

func TestDiffCollaborators(t *testing.T) {
	added, removed := DiffCollaborators([]string{"b@x.com", "c@x.com"}, []string{"C@x.com", "d@x.com", "d@x.com"})
	require.Equal(t, []string{"d@x.com"}, added)
	require.Equal(t, []string{"b@x.com"}, removed)

	added, removed = DiffCollaborators(nil, nil)
	require.Empty(t, added)
	require.Empty(t, removed)
}

func TestCheckSignatureChange(t *testing.T) {
	current := map[string]bool{"a@x.com": true, "b@x.com": false}

	sign, err := CheckSignatureChange("b@x.com", current, map[string]bool{"a@x.com": true, "b@x.com": true})
	require.NoError(t, err)
	require.True(t, sign)

	sign, err = CheckSignatureChange("a@x.com", current, map[string]bool{"a@x.com": true})
	require.NoError(t, err)
	require.False(t, sign)

	_, err = CheckSignatureChange("b@x.com", current, map[string]bool{"a@x.com": false})
	require.ErrorIs(t, err, appErr.ErrForbidden)

	_, err = CheckSignatureChange("a@x.com", current, map[string]bool{"b@x.com": true})
	require.ErrorIs(t, err, appErr.ErrForbidden)

	_, err = CheckSignatureChange("a@x.com", current, map[string]bool{"a@x.com": false})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestIsParticipant(t *testing.T) {
	require.True(t, IsParticipant("a@x.com", []string{"b@x.com"}, "A@X.com"))
	require.True(t, IsParticipant("a@x.com", []string{"b@x.com"}, "b@x.com"))
	require.False(t, IsParticipant("a@x.com", []string{"b@x.com"}, "c@x.com"))
	require.False(t, IsParticipant("a@x.com", nil, ""))
	require.False(t, IsOwner("a@x.com", "b@x.com"))
}
