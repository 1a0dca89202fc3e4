package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gitdraw/pkg/config"
)

// fileExt is the extension of session files.
const fileExt = ".toml"

// FileStore keeps each session as a TOML document named after the session
// id. The view sits in a [view] table, so a session file can be copied out
// and trimmed into an ordinary view file.
//
//	[session]
//	id = "3f2c..."
//	expires_at = 2026-10-16T09:00:00Z
//
//	[view]
//	name = "demo"
//	[[view.commits]]
//	id = "a1"
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// fileRecord is the on-disk layout of a session.
type fileRecord struct {
	Session fileMeta     `toml:"session"`
	View    *config.File `toml:"view"`
}

type fileMeta struct {
	ID        string    `toml:"id"`
	CreatedAt time.Time `toml:"created_at"`
	UpdatedAt time.Time `toml:"updated_at"`
	ExpiresAt time.Time `toml:"expires_at"`
}

// NewFileStore opens (creating if needed) a session directory. An empty dir
// means ~/.config/gitdraw/sessions.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "gitdraw", "sessions")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// validFileID reports whether id can name a file inside the store.
func validFileID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func (s *FileStore) sessionPath(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

// Get returns nil for ids that cannot name a session file.
func (s *FileStore) Get(ctx context.Context, id string) (*Session, error) {
	if !validFileID(id) {
		return nil, nil
	}

	s.mu.RLock()
	sess, err := readSession(s.sessionPath(id))
	s.mu.RUnlock()
	if err != nil || sess == nil {
		return nil, err
	}

	if sess.IsExpired() {
		s.mu.Lock()
		os.Remove(s.sessionPath(id))
		s.mu.Unlock()
		return nil, nil
	}
	return sess, nil
}

// Set writes the session through a temporary file so readers never see a
// partial document.
func (s *FileStore) Set(ctx context.Context, sess *Session) error {
	if !validFileID(sess.ID) {
		return fmt.Errorf("invalid session id %q", sess.ID)
	}

	rec := fileRecord{
		Session: fileMeta{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
			ExpiresAt: sess.ExpiresAt,
		},
		View: sess.View,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+sess.ID+"-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(rec); err != nil {
		tmp.Close()
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.sessionPath(sess.ID)); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if !validFileID(id) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Cleanup removes expired session files. Files that do not decode are left
// alone.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != fileExt || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(s.dir, name)
		sess, err := readSession(path)
		if err != nil || sess == nil {
			continue
		}
		if sess.IsExpired() {
			os.Remove(path)
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the session directory.
func (s *FileStore) Path() string {
	return s.dir
}

// readSession returns nil, nil for a missing file.
func readSession(path string) (*Session, error) {
	var rec fileRecord
	if _, err := toml.DecodeFile(path, &rec); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session %s: %w", filepath.Base(path), err)
	}
	if rec.View == nil {
		return nil, fmt.Errorf("read session %s: no [view] table", filepath.Base(path))
	}
	return &Session{
		ID:        rec.Session.ID,
		View:      rec.View,
		CreatedAt: rec.Session.CreatedAt,
		UpdatedAt: rec.Session.UpdatedAt,
		ExpiresAt: rec.Session.ExpiresAt,
	}, nil
}

var _ Store = (*FileStore)(nil)
