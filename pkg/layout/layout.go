package layout

import (
	"math"

	"github.com/matzehuels/gitdraw/pkg/errors"
)

// RootID is the id of the synthetic root every commit graph grows from.
const RootID = "initial"

// Point is a position in view coordinates (y grows downward).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is the layout's view of a commit: its id and the id of its parent.
type Node struct {
	ID     string
	Parent string
}

// Layout is the result of a layout pass.
type Layout struct {
	Params Params

	// Positions maps every commit id, and RootID, to its center.
	Positions map[string]Point

	// Displacements counts how many overlap pushes were needed.
	Displacements int
}

// At returns the position of the commit with the given id.
func (l *Layout) At(id string) (Point, bool) {
	p, ok := l.Positions[id]
	return p, ok
}

// Above reports whether y lies strictly above the centerline.
func (l *Layout) Above(y float64) bool { return y < l.Params.Centerline() }

// Compute places every node and resolves overlaps.
//
// Nodes must be in insertion order with each parent appearing before its
// children (or being RootID). Ids must be unique. The function does not
// retain nodes.
func Compute(nodes []Node, p Params) (*Layout, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	l := &Layout{
		Params:    p,
		Positions: make(map[string]Point, len(nodes)+1),
	}
	l.Positions[RootID] = p.Root()

	parents := make(map[string]string, len(nodes))
	index := siblingIndexes(nodes)
	r := newResolver(l, parents, len(nodes))

	for _, n := range nodes {
		if n.ID == RootID {
			return nil, errors.New(errors.ErrCodeInvalidCommit, "commit id %q is reserved", RootID)
		}
		if _, dup := l.Positions[n.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidCommit, "duplicate commit id %q", n.ID)
		}
		parent, ok := l.Positions[n.Parent]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidCommit,
				"commit %q: parent %q must come before it", n.ID, n.Parent)
		}

		parents[n.ID] = n.Parent
		l.Positions[n.ID] = Point{
			X: parent.X + p.Step(),
			Y: branchY(parent.Y, index[n.ID], p),
		}

		if err := r.place(n.ID); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// siblingIndexes returns each node's 0-based position among the nodes that
// share its parent, in list order.
func siblingIndexes(nodes []Node) map[string]int {
	counts := make(map[string]int)
	index := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if _, seen := index[n.ID]; seen {
			continue
		}
		index[n.ID] = counts[n.Parent]
		counts[n.Parent]++
	}
	return index
}

// branchY is the vertical placement rule for the index-th child of a parent
// at parentY.
func branchY(parentY float64, index int, p Params) float64 {
	shift := p.Step()
	center := p.Centerline()

	switch {
	case parentY == center:
		direction := 1.0
		if index%2 == 1 {
			direction = -1
		}
		return parentY + shift*math.Ceil(float64(index)/2)*direction
	case parentY < center:
		return parentY - shift*float64(index)
	default:
		return parentY + shift*float64(index)
	}
}
