package layout

import (
	"math"
	"slices"
	"strings"
)

// Label geometry shared by every renderer.
const (
	TagHeight     = 20.0
	TagTextOffset = 14.0 // baseline of a tag's text below the tag's top edge
	IDLabelOffset = 14.0 // gap between a circle's bottom edge and its id label

	tagAboveOffset = 45.0
	tagBelowOffset = 40.0
	tagSpacing     = 25.0

	tagCharWidth = 6.0
	tagPadding   = 10.0
)

// Position of the current-branch display text.
var DisplayPosition = Point{X: 10, Y: 25}

// PointerAnchors returns the endpoints of the line drawn from a commit to its
// parent. The start is inset by margin from the child's center toward the
// parent; the end is inset by 1.2×margin from the parent's center toward the
// child. Coincident centers yield the centers themselves.
func PointerAnchors(child, parent Point, margin float64) (start, end Point) {
	dx := child.X - parent.X
	dy := parent.Y - child.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return child, parent
	}

	ux, uy := dx/length, dy/length
	start = Point{
		X: child.X - margin*ux,
		Y: child.Y + margin*uy,
	}
	end = Point{
		X: parent.X + margin*arrowRatio*ux,
		Y: parent.Y - margin*arrowRatio*uy,
	}
	return start, end
}

// TagY returns the top edge of the index-th tag label on a commit at
// commitY. Labels on commits above the centerline stack upward, all others
// stack downward.
func TagY(commitY float64, index int, centerline float64) float64 {
	if commitY < centerline {
		return commitY - tagAboveOffset - float64(index)*tagSpacing
	}
	return commitY + tagBelowOffset + float64(index)*tagSpacing
}

// TagIndex returns the stacking index of name in tags. A name not in the
// list stacks after the last tag.
func TagIndex(tags []string, name string) int {
	if i := slices.Index(tags, name); i >= 0 {
		return i
	}
	return len(tags)
}

// TagWidth returns the width of the label box for a tag name.
func TagWidth(name string) float64 {
	return float64(len(name))*tagCharWidth + tagPadding
}

// IDLabel returns the anchor of a commit's id label.
func IDLabel(center Point, radius float64) Point {
	return Point{X: center.X, Y: center.Y + radius + IDLabelOffset}
}

// TagKind classifies a tag label for styling.
type TagKind string

// Tag kinds.
const (
	TagBranch TagKind = "branch"
	TagRemote TagKind = "remote"
	TagHead   TagKind = "head"
)

// IsHead reports whether name is the HEAD marker (case-insensitive).
func IsHead(name string) bool {
	return strings.EqualFold(name, "HEAD")
}

// ClassifyTag returns the kind of a tag: remote when the name contains a path
// separator, head for HEAD, branch otherwise.
func ClassifyTag(name string) TagKind {
	switch {
	case strings.Contains(name, "/"):
		return TagRemote
	case IsHead(name):
		return TagHead
	default:
		return TagBranch
	}
}
