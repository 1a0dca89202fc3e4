package history

import (
	"slices"

	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/layout"
)

// Name returns the view's name.
func (r *Repository) Name() string { return r.name }

// Params returns the view's layout parameters.
func (r *Repository) Params() layout.Params { return r.params }

// CurrentBranch returns the branch HEAD is attached to, or "" when detached.
func (r *Repository) CurrentBranch() string { return r.currentBranch }

// Detached reports whether HEAD is detached.
func (r *Repository) Detached() bool { return r.currentBranch == "" }

// DisplayText returns the current-branch text shown on the view.
func (r *Repository) DisplayText() string { return graph.BranchDisplay(r.currentBranch) }

// Branches returns the registry of known ref names, HEAD first.
func (r *Repository) Branches() []string { return slices.Clone(r.branches) }

// Head returns the commit HEAD points at. It reports false on an unborn
// branch.
func (r *Repository) Head() (Commit, bool) { return r.store.Holder(HeadRef) }

// Resolve returns the commit ref names.
func (r *Repository) Resolve(ref string) (Commit, error) { return r.store.Resolve(ref) }

// Commits returns copies of all commits in insertion order.
func (r *Repository) Commits() []Commit { return r.store.Commits() }

// Len returns the number of commits, not counting the root.
func (r *Repository) Len() int { return r.store.Len() }

// Position returns the center of the commit with the given id, including
// the root.
func (r *Repository) Position(id string) (layout.Point, bool) {
	return r.layout.At(id)
}

// Scene returns a positioned snapshot of the view.
func (r *Repository) Scene() graph.Scene {
	p := r.params
	center := p.Centerline()

	s := graph.Scene{
		Name:          r.name,
		Width:         p.Width,
		Height:        p.Height,
		Radius:        p.Radius,
		Root:          p.Root(),
		Commits:       make([]graph.Commit, 0, r.store.Len()),
		Pointers:      make([]graph.Pointer, 0, r.store.Len()),
		Tags:          []graph.Tag{},
		CurrentBranch: r.currentBranch,
		Display:       r.DisplayText(),
	}
	if head, ok := r.Head(); ok {
		s.Head = head.ID
	}

	for _, c := range r.store.commits {
		pos, _ := r.layout.At(c.ID)
		s.Commits = append(s.Commits, graph.Commit{
			ID:      c.ID,
			Parent:  c.Parent,
			Tags:    slices.Clone(c.Tags),
			CX:      pos.X,
			CY:      pos.Y,
			Current: c.ID == s.Head,
			Label:   layout.IDLabel(pos, p.Radius),
		})

		parent, _ := r.layout.At(c.Parent)
		start, end := layout.PointerAnchors(pos, parent, p.PointerMargin())
		s.Pointers = append(s.Pointers, graph.Pointer{
			ID:     c.ID,
			Parent: c.Parent,
			X1:     start.X,
			Y1:     start.Y,
			X2:     end.X,
			Y2:     end.Y,
		})

		for i, name := range c.Tags {
			s.Tags = append(s.Tags, graph.Tag{
				Name:   name,
				Commit: c.ID,
				X:      pos.X,
				Y:      layout.TagY(pos.Y, i, center),
				Index:  i,
				Kind:   layout.ClassifyTag(name),
				Width:  layout.TagWidth(name),
			})
		}
	}
	return s
}
