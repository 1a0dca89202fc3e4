package layout

import (
	"github.com/matzehuels/gitdraw/pkg/errors"
)

// resolver pushes coincident commits apart. It works on the layout's
// position map in place; only commits passed to place are considered.
type resolver struct {
	layout  *Layout
	parents map[string]string
	placed  []string
	budget  int
}

func newResolver(l *Layout, parents map[string]string, n int) *resolver {
	return &resolver{
		layout:  l,
		parents: parents,
		placed:  make([]string, 0, n),
		budget:  n*n + n,
	}
}

// place registers id as placed and runs the work list until no commit
// shares a position with another.
func (r *resolver) place(id string) error {
	r.placed = append(r.placed, id)

	queue := []string{id}
	for len(queue) > 0 {
		id, queue = queue[0], queue[1:]

		other, ok := r.collision(id)
		if !ok {
			continue
		}

		if r.budget == 0 {
			return errors.New(errors.ErrCodeInternal,
				"overlap resolution did not converge at commit %q", id)
		}
		r.budget--

		moved := r.displace(id, other)
		r.layout.Displacements++
		queue = append(queue, moved)
	}
	return nil
}

// collision returns the first placed commit, in insertion order, that sits
// exactly on id's position.
func (r *resolver) collision(id string) (string, bool) {
	pos := r.layout.Positions[id]
	for _, other := range r.placed {
		if other == id {
			continue
		}
		if r.layout.Positions[other] == pos {
			return other, true
		}
	}
	return "", false
}

// displace pushes one of the colliding pair a step further from the
// centerline and returns the id of the commit that moved.
//
// Above the centerline the commit whose parent sits strictly higher moves up;
// below it the commit whose parent sits strictly lower moves down. On a tie
// the commit under inspection moves.
func (r *resolver) displace(id, other string) string {
	pos := r.layout.Positions
	step := r.layout.Params.Step()

	parentY := pos[r.parents[id]].Y
	otherParentY := pos[r.parents[other]].Y

	var moved string
	var dy float64
	if r.layout.Above(pos[other].Y) {
		moved, dy = id, -step
		if otherParentY < parentY {
			moved = other
		}
	} else {
		moved, dy = id, step
		if otherParentY > parentY {
			moved = other
		}
	}

	p := pos[moved]
	p.Y += dy
	pos[moved] = p
	return moved
}
