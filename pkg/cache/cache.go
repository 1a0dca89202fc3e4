// Package cache stores rendered artifacts keyed by content hash.
//
// Three backends implement [Cache]:
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared entries for several server instances
//
// Keys are built by a [Keyer] so the same scene rendered with the same
// options always maps to the same entry, whichever backend holds it.
package cache

import (
	"context"
	"time"
)

// Default time-to-live for cached entries.
const (
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// =============================================================================
// Keys
// =============================================================================

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Diagram    string  `json:"diagram,omitempty"`
	Style      string  `json:"style,omitempty"`
	Engine     string  `json:"engine,omitempty"`
	Detailed   bool    `json:"detailed,omitempty"`
	Background bool    `json:"background,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey returns the key for an artifact rendered from the scene
	// with the given hash.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys of the form "artifact:<format>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return artifactKey(sceneHash, opts)
}
