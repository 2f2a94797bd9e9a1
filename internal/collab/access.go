// Package collab holds the pure collaboration rules: comment threading,
// participant membership and the signature workflow. Nothing here touches
// storage; callers pass the caller identity explicitly.
package collab

import "strings"

// NormalizeIdentity canonicalises an email-like identity for comparison.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func SameIdentity(a, b string) bool {
	na := NormalizeIdentity(a)
	return na != "" && na == NormalizeIdentity(b)
}

func IsOwner(owner, identity string) bool {
	return SameIdentity(owner, identity)
}

// IsParticipant reports whether identity is the owner or a collaborator.
func IsParticipant(owner string, collaborators []string, identity string) bool {
	if IsOwner(owner, identity) {
		return true
	}
	for _, item := range collaborators {
		if SameIdentity(item, identity) {
			return true
		}
	}
	return false
}
