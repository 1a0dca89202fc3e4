package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/render"
	"github.com/matzehuels/gitdraw/pkg/render/nodelink"
	"github.com/matzehuels/gitdraw/pkg/render/svg"
)

// Render generates output artifacts in the requested formats. Options must
// have been validated.
func Render(ctx context.Context, s graph.Scene, opts Options) (map[string][]byte, error) {
	if opts.IsNodelink() {
		return renderNodelink(ctx, s, opts)
	}
	return renderNative(ctx, s, opts)
}

// renderNative draws with the built-in renderer. PNG and PDF are converted
// from the SVG.
func renderNative(ctx context.Context, s graph.Scene, opts Options) (map[string][]byte, error) {
	style, err := svg.StyleByName(opts.Style)
	if err != nil {
		return nil, err
	}
	svgOpts := []svg.Option{svg.WithStyle(style)}
	if opts.Background {
		svgOpts = append(svgOpts, svg.WithBackground())
	}

	var drawn []byte
	drawSVG := func() []byte {
		if drawn == nil {
			drawn = svg.Render(s, svgOpts...)
		}
		return drawn
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = drawSVG()
		case FormatPNG:
			data, err = render.ToPNG(ctx, drawSVG(), opts.Scale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, drawSVG())
		case FormatDOT:
			data = []byte(nodelink.ToDOT(s, opts.NodelinkOptions()))
		case FormatJSON:
			data, err = graph.MarshalScene(s)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderNodelink draws with Graphviz.
func renderNodelink(ctx context.Context, s graph.Scene, opts Options) (map[string][]byte, error) {
	nl := opts.NodelinkOptions()
	dot := nodelink.ToDOT(s, nl)
	engine := nodelink.EngineFor(nl)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot, engine)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, engine, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot, engine)
		case FormatDOT:
			data = []byte(dot)
		case FormatJSON:
			data, err = graph.MarshalScene(s)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
