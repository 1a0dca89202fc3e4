package history

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/gitdraw/pkg/errors"
)

// IDLength is the length of generated commit ids.
const IDLength = 7

// maxIDAttempts bounds regeneration on collision.
const maxIDAttempts = 32

// IDFunc produces candidate commit ids.
type IDFunc func() string

// RandomID returns IDLength lowercase hex characters taken from a random
// UUID.
func RandomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
}

// SequentialIDs returns an IDFunc yielding "c1", "c2", ... which is handy for
// reproducible diagrams and tests.
func SequentialIDs(prefix string) IDFunc {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}

// nextID draws ids until one is valid and unused.
func (r *Repository) nextID() (string, error) {
	for range maxIDAttempts {
		id := r.newID()
		if id == RootID || r.store.Contains(id) || r.isBranch(id) {
			continue
		}
		if errors.ValidateCommitID(id) != nil {
			continue
		}
		return id, nil
	}
	return "", errors.New(errors.ErrCodeInternal, "could not generate an unused commit id after %d attempts", maxIDAttempts)
}
