// Package session persists interactive editing sessions of history views.
//
// A session holds a snapshot of one view (as a [config.File]) plus expiry
// metadata. The server loads the snapshot, applies an operation, and stores
// the new snapshot, so any instance sharing the store can serve the next
// request. Three backends implement [Store]:
//   - [MemoryStore]: a single process, for tests and the default server
//   - [FileStore]: one TOML document per session, for the CLI play command
//   - [RedisStore]: shared sessions for several server instances
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(config.Default(), session.DefaultTTL)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // Session not found or expired
//	}
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/gitdraw/pkg/config"
)

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// Session is one persisted view.
type Session struct {
	ID        string       `json:"id"`
	View      *config.File `json:"view"`
	ExpiresAt time.Time    `json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch records a change to the view and extends the session by ttl.
func (s *Session) Touch(view *config.File, ttl time.Duration) {
	now := time.Now()
	s.View = view
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (may be a no-op when the backend
	// expires entries itself).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// GenerateID returns a new random session id.
func GenerateID() string {
	return uuid.NewString()
}

// New creates a session for view that expires after ttl.
func New(view *config.File, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        GenerateID(),
		View:      view,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
