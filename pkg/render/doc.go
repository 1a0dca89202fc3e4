// Package render provides output formats for history scenes.
//
// # Overview
//
// Scenes are drawn by two renderers:
//
//   - [svg]: the native renderer, matching the interactive history view
//   - [nodelink]: Graphviz node-link diagrams (DOT source or SVG)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	out := svg.Render(scene)
//	pdf, err := render.ToPDF(ctx, out)
//	png, err := render.ToPNG(ctx, out, 2.0)  // 2x scale
//
// [svg]: github.com/matzehuels/gitdraw/pkg/render/svg
// [nodelink]: github.com/matzehuels/gitdraw/pkg/render/nodelink
package render
