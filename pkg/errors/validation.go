package errors

import (
	"strings"
	"unicode"
)

// maxRefNameLength bounds ref names so tag labels stay drawable.
const maxRefNameLength = 256

// ValidateRefName validates a branch or tag name supplied by a caller.
//
// The rules are the ones the history view has always enforced:
//   - No empty or whitespace-only names
//   - No spaces
//
// plus a guard against control characters and absurd lengths, which would
// otherwise end up verbatim in rendered labels. Uniqueness is checked by the
// caller, which owns the branch registry.
func ValidateRefName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidRef, "you need to give a branch name")
	}

	if strings.Contains(name, " ") {
		return New(ErrCodeInvalidRef, "branch names cannot contain spaces")
	}

	if len(name) > maxRefNameLength {
		return New(ErrCodeInvalidRef, "branch name too long (max %d characters)", maxRefNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRef, "branch name contains invalid control characters")
		}
	}

	return nil
}

// ValidateCommitID validates a caller-supplied commit id.
// Ids are opaque, but they are used as ref targets and element ids, so the
// same whitespace rules as ref names apply.
func ValidateCommitID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidCommit, "commit id cannot be empty")
	}
	if strings.ContainsFunc(id, unicode.IsSpace) {
		return New(ErrCodeInvalidCommit, "commit id cannot contain whitespace: %q", id)
	}
	return nil
}
