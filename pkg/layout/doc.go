// Package layout computes drawing coordinates for a single-parent commit graph.
//
// # Overview
//
// The layout is a pure function of the commit list and the view parameters:
// [Compute] takes the commits in insertion order plus [Params] and returns a
// [Layout] holding one [Point] per commit and one for the synthetic root
// ([RootID]). Nothing is written back to the caller's records, so re-running
// [Compute] on an unchanged graph reproduces identical coordinates.
//
// # Placement
//
// Every commit sits one [Params.Step] (4.5 × radius) to the right of its
// parent, so depth alone determines x. The y coordinate depends on the
// commit's index among the siblings that share its parent:
//
//   - parent on the centerline: siblings fan out alternately above and below,
//     ceil(i/2) steps away
//   - parent above the centerline: sibling i sits i steps further up
//   - parent below the centerline: sibling i sits i steps further down
//
// # Overlap Resolution
//
// After a commit is placed it is checked against the commits placed before
// it. When two commits share a position, the one whose lineage diverged
// further from the centerline is pushed one more step away, and the pushed
// commit is queued for another check. The work list is bounded so a
// non-converging input is reported as an error rather than looping.
//
// # Anchors and Labels
//
// [PointerAnchors] returns the start and end of the line drawn from a commit
// to its parent, inset so the line begins at the circle's edge and leaves room
// for an arrowhead. [TagY] stacks branch labels away from the centerline in
// tag-list order. [ClassifyTag] and [TagWidth] describe the label itself.
package layout
