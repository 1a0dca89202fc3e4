package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/layout"
	"github.com/matzehuels/gitdraw/pkg/render"
)

// pointsPerInch converts view coordinates to Graphviz inches.
const pointsPerInch = 72.0

// Options configures node-link diagram generation.
type Options struct {
	// Detailed adds each commit's refs to its label.
	Detailed bool

	// Ranked drops the computed positions and lets dot arrange the graph.
	Ranked bool
}

// EngineFor returns the Graphviz layout engine matching opts.
func EngineFor(opts Options) graphviz.Layout {
	if opts.Ranked {
		return graphviz.DOT
	}
	return graphviz.NEATO
}

// ToDOT converts a scene to Graphviz DOT source.
func ToDOT(s graph.Scene, opts Options) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", s.Name)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Ranked {
		buf.WriteString("  rankdir=RL;\n")
		buf.WriteString("  nodesep=0.3;\n")
	} else {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  splines=line;\n")
	}
	diameter := inches(2 * s.Radius)
	fmt.Fprintf(&buf, "  node [shape=circle, fixedsize=true, width=%s, style=filled, fillcolor=\"#EEEEEE\", color=\"#888888\", penwidth=3, fontname=monospace, fontsize=10];\n", diameter)
	buf.WriteString("  edge [color=\"#666666\", penwidth=2, arrowsize=0.6];\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [shape=point, width=0.05, color=\"#BBBBBB\"%s];\n", layout.RootID, pin(s, s.Root.X, s.Root.Y, opts))
	for _, c := range s.Commits {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(c, opts.Detailed))}
		if c.Current {
			attrs = append(attrs, `fillcolor="#CCFFCC"`, `color="#339900"`)
		}
		fmt.Fprintf(&buf, "  %q [%s%s];\n", c.ID, strings.Join(attrs, ", "), pin(s, c.CX, c.CY, opts))
	}

	buf.WriteString("\n")
	for _, p := range s.Pointers {
		fmt.Fprintf(&buf, "  %q -> %q;\n", p.ID, p.Parent)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(c graph.Commit, detailed bool) string {
	if !detailed || len(c.Tags) == 0 {
		return c.LabelText()
	}
	return c.LabelText() + "\n" + strings.Join(c.Tags, "\n")
}

// pin returns the pos attribute fixing a node at (x, y), flipping y since
// Graphviz's origin is bottom-left.
func pin(s graph.Scene, x, y float64, opts Options) string {
	if opts.Ranked {
		return ""
	}
	return fmt.Sprintf(", pos=\"%s,%s!\"", inches(x), inches(s.Height-y))
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

// RenderSVG renders DOT source to SVG using Graphviz with the given engine.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string, engine graphviz.Layout) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(engine)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's root element with one whose size
// matches its viewBox, so the output scales like the native renderer's.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders DOT source as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string, engine graphviz.Layout) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source as PNG via SVG conversion at the given scale.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, engine graphviz.Layout, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
