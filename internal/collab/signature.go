package collab

import (
	"github.com/xxxsen/accord/internal/model"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

// Participants returns {owner} ∪ collaborators, owner first, without
// duplicates.
func Participants(owner string, collaborators []string) []string {
	out := make([]string, 0, len(collaborators)+1)
	seen := make(map[string]bool, len(collaborators)+1)
	for _, item := range append([]string{owner}, collaborators...) {
		key := NormalizeIdentity(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// AllSigned scans every current participant. Entries for identities that are
// no longer participants are ignored.
func AllSigned(owner string, collaborators []string, signatures map[string]bool) bool {
	participants := Participants(owner, collaborators)
	if len(participants) == 0 {
		return false
	}
	for _, identity := range participants {
		if !signatures[identity] {
			return false
		}
	}
	return true
}

func StatusOf(owner string, collaborators []string, signatures map[string]bool) model.DocumentStatus {
	if AllSigned(owner, collaborators, signatures) {
		return model.DocumentStatusExecuted
	}
	return model.DocumentStatusPending
}

// ResetSignatures returns the map after a content edit: every existing entry
// and every current participant maps to false.
func ResetSignatures(owner string, collaborators []string, signatures map[string]bool) map[string]bool {
	out := make(map[string]bool, len(signatures)+len(collaborators)+1)
	for identity := range signatures {
		out[identity] = false
	}
	for _, identity := range Participants(owner, collaborators) {
		out[identity] = false
	}
	return out
}

// DiffCollaborators compares the stored list with a requested one.
func DiffCollaborators(current, next []string) (added, removed []string) {
	currentSet := make(map[string]bool, len(current))
	for _, item := range current {
		currentSet[NormalizeIdentity(item)] = true
	}
	nextSet := make(map[string]bool, len(next))
	for _, item := range next {
		key := NormalizeIdentity(item)
		if key == "" || nextSet[key] {
			continue
		}
		nextSet[key] = true
		if !currentSet[key] {
			added = append(added, key)
		}
	}
	for _, item := range current {
		key := NormalizeIdentity(item)
		if !nextSet[key] {
			removed = append(removed, key)
			nextSet[key] = true
		}
	}
	return added, removed
}

// CheckSignatureChange validates a requested signature map against the stored
// one. A caller may only flip their own entry, and only to signed. Entries
// equal to the stored value are ignored so clients can send the whole map.
func CheckSignatureChange(caller string, current, requested map[string]bool) (bool, error) {
	self := NormalizeIdentity(caller)
	sign := false
	for identity, value := range requested {
		key := NormalizeIdentity(identity)
		if current[key] == value {
			continue
		}
		if key != self {
			return false, appErr.ErrForbidden
		}
		if !value {
			return false, appErr.ErrInvalid
		}
		sign = true
	}
	return sign, nil
}
