package graph

import (
	"github.com/matzehuels/gitdraw/pkg/layout"
)

// Display strings for the current-branch text.
const (
	displayPrefix   = "Current Branch: "
	displayDetached = "DETACHED HEAD"
)

// BranchDisplay returns the text shown for the current branch. An empty
// branch means HEAD is detached.
func BranchDisplay(branch string) string {
	if branch == "" {
		return displayPrefix + displayDetached
	}
	return displayPrefix + branch
}

// =============================================================================
// Scene - Positioned Snapshot
// =============================================================================

// Scene is a read-only snapshot of a history view after a layout pass.
type Scene struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Radius float64 `json:"commit_radius"`

	Root     layout.Point `json:"root"`
	Commits  []Commit     `json:"commits"`
	Pointers []Pointer    `json:"pointers"`
	Tags     []Tag        `json:"tags"`

	// CurrentBranch is empty when HEAD is detached.
	CurrentBranch string `json:"current_branch,omitempty"`
	// Head is the id of the commit HEAD points at, empty before the first
	// commit on an unborn branch.
	Head    string `json:"head,omitempty"`
	Display string `json:"display"`
}

// Commit returns the commit with the given id.
func (s *Scene) Commit(id string) (Commit, bool) {
	for _, c := range s.Commits {
		if c.ID == id {
			return c, true
		}
	}
	return Commit{}, false
}

// Detached reports whether the scene was captured with a detached HEAD.
func (s *Scene) Detached() bool { return s.CurrentBranch == "" }

// =============================================================================
// Commit - Positioned Commit
// =============================================================================

// Commit is a commit record with its computed center.
type Commit struct {
	ID     string   `json:"id"`
	Parent string   `json:"parent"`
	Tags   []string `json:"tags"`
	CX     float64  `json:"cx"`
	CY     float64  `json:"cy"`

	// Current marks the commit HEAD points at; renderers emphasize it.
	Current bool `json:"current,omitempty"`

	// Label is where the commit's id label is anchored.
	Label layout.Point `json:"label"`
}

// Center returns the commit's center as a point.
func (c Commit) Center() layout.Point { return layout.Point{X: c.CX, Y: c.CY} }

// LabelText is the truncated id shown under the circle.
func (c Commit) LabelText() string { return c.ID + ".." }

// =============================================================================
// Pointer - Parent Line
// =============================================================================

// Pointer holds the endpoints of the line from a commit to its parent.
type Pointer struct {
	ID     string  `json:"id"`
	Parent string  `json:"parent"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

// =============================================================================
// Tag - Ref Label
// =============================================================================

// Tag is a placed ref label. X is the horizontal center of the label and Y
// the top edge of its box.
type Tag struct {
	Name   string         `json:"name"`
	Commit string         `json:"commit"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Index  int            `json:"index"`
	Kind   layout.TagKind `json:"kind"`
	Width  float64        `json:"width"`
}

// Left returns the x coordinate of the label box's left edge.
func (t Tag) Left() float64 { return t.X - t.Width/2 }

// TextY returns the baseline of the label text.
func (t Tag) TextY() float64 { return t.Y + layout.TagTextOffset }
