// Package svg renders history scenes as standalone SVG documents.
//
// The output mirrors what an interactive history view shows: a line with an
// arrowhead from every commit to its parent, a circle per commit, a truncated
// id under each circle, stacked ref labels, and the current-branch text in
// the top-left corner. The commit HEAD points at is emphasized.
//
// Element ids are prefixed with the scene name so several views can be
// inlined into one HTML page:
//
//	<circle id="demo-e137e9b" class="commit" .../>
//	<line id="demo-e137e9b-to-initial" class="commit-pointer" .../>
//
// # Usage
//
//	out := svg.Render(repo.Scene())
//	out = svg.Render(scene, svg.WithStyle(svg.Dark()), svg.WithBackground())
//
// [Canvas] implements history.Renderer and keeps the latest frame, so a
// repository can draw straight into it.
package svg
