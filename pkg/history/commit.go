package history

import (
	"slices"

	"github.com/matzehuels/gitdraw/pkg/layout"
)

// RootID is the id of the synthetic root commit.
const RootID = layout.RootID

// HeadRef is the mandatory ref naming the checked-out commit.
const HeadRef = "HEAD"

// Commit is a node of the history graph.
type Commit struct {
	ID     string   `json:"id"`
	Parent string   `json:"parent,omitempty"`
	Tags   []string `json:"tags"`
}

// IsRoot reports whether c is the synthetic root commit.
func (c Commit) IsRoot() bool { return c.ID == RootID }

// HasTag reports whether the ref name points at c.
func (c Commit) HasTag(name string) bool { return slices.Contains(c.Tags, name) }

func (c Commit) clone() Commit {
	c.Tags = slices.Clone(c.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

func (c *Commit) removeTag(name string) {
	if i := slices.Index(c.Tags, name); i >= 0 {
		c.Tags = slices.Delete(c.Tags, i, i+1)
	}
}

// CommitData describes a commit to create. Every field is optional: an empty
// ID is generated, an empty Parent means "the commit the current branch
// points at", and Tags defaults to none.
type CommitData struct {
	ID     string   `json:"id,omitempty" toml:"id,omitempty"`
	Parent string   `json:"parent,omitempty" toml:"parent,omitempty"`
	Tags   []string `json:"tags,omitempty" toml:"tags,omitempty"`
}
