package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/gitdraw/pkg/config"
	"github.com/matzehuels/gitdraw/pkg/history"
)

func sampleView() *config.File {
	f := config.Default()
	f.Name = "demo"
	f.Commits = []history.CommitData{
		{ID: "a1"},
		{ID: "b2", Tags: []string{"master"}},
	}
	return f
}

// testStore exercises the Store contract shared by all backends.
func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	sess := New(sampleView(), time.Hour)
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for a stored session")
	}
	if got.View.Name != "demo" || len(got.View.Commits) != 2 || got.View.Commits[1].Tags[0] != "master" {
		t.Errorf("view = %+v", got.View)
	}

	// Mutating the returned copy does not touch the store.
	got.View.Name = "changed"
	again, _ := store.Get(ctx, sess.ID)
	if again.View.Name != "demo" {
		t.Errorf("store shares state with callers: %q", again.View.Name)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := store.Get(ctx, sess.ID); got != nil || err != nil {
		t.Errorf("Get after Delete = %v, %v", got, err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Errorf("Delete missing: %v", err)
	}

	if got, err := store.Get(ctx, "missing"); got != nil || err != nil {
		t.Errorf("Get(missing) = %v, %v", got, err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, store)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	expired := New(sampleView(), -time.Minute)
	live := New(sampleView(), time.Hour)
	for _, s := range []*Session{expired, live} {
		if err := store.Set(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if got, _ := store.Get(ctx, expired.ID); got != nil {
		t.Error("expired session returned")
	}
	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() after Cleanup = %d, want 1", store.Len())
	}
}

func TestFileStoreExpiry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	expired := New(sampleView(), -time.Minute)
	if err := store.Set(ctx, expired); err != nil {
		t.Fatal(err)
	}
	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, expired.ID+".toml")); !os.IsNotExist(err) {
		t.Errorf("expired session file still present: %v", err)
	}
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"../escape", "a/b", `a\b`, "..", ""} {
		sess := New(sampleView(), time.Hour)
		sess.ID = id
		if err := store.Set(ctx, sess); err == nil {
			t.Errorf("Set(%q) succeeded", id)
		}
		if got, err := store.Get(ctx, id); got != nil || err != nil {
			t.Errorf("Get(%q) = %v, %v", id, got, err)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.toml")); !os.IsNotExist(err) {
		t.Errorf("session written outside %s", dir)
	}
	if store.Path() != dir {
		t.Errorf("Path() = %q, want %q", store.Path(), dir)
	}
}

func TestFileStoreDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	sess := New(sampleView(), time.Hour)
	sess.View.Head = "a1"
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, sess.ID+".toml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[session]", "[view]", "[[view.commits]]", `head = "a1"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("session file lacks %q:\n%s", want, data)
		}
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if got.View.Head != "a1" || !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("round trip = %+v", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir holds %d entries, want only the session file", len(entries))
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.toml"), []byte("[session\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(ctx, "bad"); err == nil {
		t.Error("Get of a corrupt session succeeded")
	}
	if err := store.Cleanup(ctx); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}

func TestSessionTouch(t *testing.T) {
	sess := New(sampleView(), time.Minute)
	before := sess.ExpiresAt

	view := sampleView()
	view.Head = "a1"
	sess.Touch(view, time.Hour)

	if sess.View.Head != "a1" {
		t.Error("Touch did not replace the view")
	}
	if !sess.ExpiresAt.After(before) {
		t.Error("Touch did not extend expiry")
	}
	if sess.IsExpired() {
		t.Error("touched session is expired")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := GenerateID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

// TestRedisStore runs against a live server when GITDRAW_TEST_REDIS is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("GITDRAW_TEST_REDIS")
	if addr == "" {
		t.Skip("GITDRAW_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	testStore(t, NewRedisStore(client))
}
