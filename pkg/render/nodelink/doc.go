// Package nodelink renders history scenes as Graphviz node-link diagrams.
//
// # Overview
//
// Commits become circles and parent pointers become arrows from child to
// parent. Two layouts are available:
//
//   - Pinned (default): every commit is pinned at its computed position and
//     laid out with neato, so the picture matches the native SVG renderer.
//   - Ranked: positions are dropped and Graphviz's dot engine arranges the
//     history left to right, which is handy for very wide histories.
//
// # Usage
//
//	src := nodelink.ToDOT(scene, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, src, nodelink.EngineFor(opts))
//
// The DOT source can also be saved and processed with external Graphviz
// tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
