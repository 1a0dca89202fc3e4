package history

import (
	"slices"

	"github.com/matzehuels/gitdraw/pkg/errors"
)

// lookup is one way of turning a ref into a commit.
type lookup interface {
	find(commits []*Commit, ref string) *Commit
}

type byID struct{}

func (byID) find(commits []*Commit, ref string) *Commit {
	for _, c := range commits {
		if c.ID == ref {
			return c
		}
	}
	return nil
}

type byTag struct{}

func (byTag) find(commits []*Commit, ref string) *Commit {
	for _, c := range commits {
		if c.HasTag(ref) {
			return c
		}
	}
	return nil
}

// resolveOrder is the order lookups are tried in. Ids win over tag names.
var resolveOrder = []lookup{byID{}, byTag{}}

// Store holds the commits of one history in insertion order plus the root
// sentinel. Only tag lists change after a commit is appended.
type Store struct {
	root    Commit
	commits []*Commit
}

// NewStore returns an empty store holding only the root commit.
func NewStore() *Store {
	return &Store{root: Commit{ID: RootID, Tags: []string{}}}
}

// Root returns the root sentinel.
func (s *Store) Root() Commit { return s.root.clone() }

// Len returns the number of commits, not counting the root.
func (s *Store) Len() int { return len(s.commits) }

// Commits returns copies of all commits in insertion order.
func (s *Store) Commits() []Commit {
	out := make([]Commit, len(s.commits))
	for i, c := range s.commits {
		out[i] = c.clone()
	}
	return out
}

// Resolve returns the commit a ref names: the root for "initial", otherwise
// the first commit whose id matches, otherwise the first commit holding the
// ref as a tag.
func (s *Store) Resolve(ref string) (Commit, error) {
	if ref == RootID {
		return s.Root(), nil
	}
	c := s.resolve(ref)
	if c == nil {
		return Commit{}, errors.NotFound(ref)
	}
	return c.clone(), nil
}

// Holder returns the commit holding tag, ignoring ids.
func (s *Store) Holder(tag string) (Commit, bool) {
	c := byTag{}.find(s.commits, tag)
	if c == nil {
		return Commit{}, false
	}
	return c.clone(), true
}

// Contains reports whether a commit with the id exists.
func (s *Store) Contains(id string) bool {
	return id == RootID || byID{}.find(s.commits, id) != nil
}

func (s *Store) resolve(ref string) *Commit {
	for _, l := range resolveOrder {
		if c := l.find(s.commits, ref); c != nil {
			return c
		}
	}
	return nil
}

func (s *Store) append(c Commit) {
	c = c.clone()
	s.commits = append(s.commits, &c)
}

// moveTag removes tag from its current holder and appends it to the commit
// with the given id. The target must exist and must not be the root.
func (s *Store) moveTag(tag, id string) {
	if holder := (byTag{}).find(s.commits, tag); holder != nil {
		holder.removeTag(tag)
	}
	if target := (byID{}).find(s.commits, id); target != nil {
		target.Tags = append(target.Tags, tag)
	}
}

// addTag appends tag to the commit with the given id.
func (s *Store) addTag(tag, id string) {
	if target := (byID{}).find(s.commits, id); target != nil && !slices.Contains(target.Tags, tag) {
		target.Tags = append(target.Tags, tag)
	}
}
