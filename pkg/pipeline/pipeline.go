// Package pipeline turns view definitions into rendered artifacts.
//
// The pipeline has two stages that CLI and server share:
//
//  1. Build: create the history view from a [config.File] and replay its
//     script
//  2. Render: produce the requested formats from the view's scene
//
// Rendered artifacts are cached by scene hash and render options, so
// redrawing an unchanged view is a cache lookup.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	f, _ := config.Load("view.toml")
//	result, err := runner.Execute(ctx, f, pipeline.Options{Formats: []string{"svg", "dot"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitdraw/pkg/cache"
	"github.com/matzehuels/gitdraw/pkg/config"
	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/render/nodelink"
	"github.com/matzehuels/gitdraw/pkg/render/svg"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// Diagram kinds.
const (
	// DiagramNative draws the view with the built-in SVG renderer.
	DiagramNative = "native"

	// DiagramNodelink draws the view with Graphviz.
	DiagramNodelink = "nodelink"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Defaults applied by ValidateAndSetDefaults.
const (
	DefaultDiagram = DiagramNative
	DefaultStyle   = "classic"
	DefaultScale   = 2.0
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ValidDiagrams is the set of supported diagram kinds.
var ValidDiagrams = map[string]bool{
	DiagramNative:   true,
	DiagramNodelink: true,
}

// ContentTypes maps formats to their MIME types.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
	FormatDOT:  "text/vnd.graphviz",
	FormatJSON: "application/json",
}

// =============================================================================
// Options - Render Configuration
// =============================================================================

// Options configures the render stage. It supports JSON for API requests.
type Options struct {
	Formats    []string `json:"formats,omitempty"`
	Style      string   `json:"style,omitempty"`
	Diagram    string   `json:"diagram,omitempty"`
	Ranked     bool     `json:"ranked,omitempty"`   // nodelink: let dot rank commits instead of pinning them
	Detailed   bool     `json:"detailed,omitempty"` // nodelink: list tags in node labels
	Background bool     `json:"background,omitempty"`
	Scale      float64  `json:"scale,omitempty"` // png only
	Refresh    bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// OptionsFrom returns the render defaults of a view file.
func OptionsFrom(r config.Render) Options {
	return Options{
		Formats:    slices.Clone(r.Formats),
		Style:      r.Style,
		Diagram:    r.Diagram,
		Ranked:     r.Ranked,
		Detailed:   r.Detailed,
		Background: r.Background,
		Scale:      r.Scale,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the positioned view the artifacts were drawn from.
	Scene graph.Scene

	// SceneHash is the content hash of the scene's JSON form.
	SceneHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Log holds the output of each script command, in order.
	Log []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CommitCount int
	TagCount    int
	BuildTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	_, err := svg.StyleByName(style)
	return err
}

// ValidateDiagram checks that a diagram kind is valid.
func ValidateDiagram(diagram string) error {
	if !ValidDiagrams[diagram] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid diagram: %q (must be one of: native, nodelink)", diagram)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// Calling it more than once has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Diagram == "" {
		o.Diagram = DefaultDiagram
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if err := ValidateDiagram(o.Diagram); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "scale must be positive, got %g", o.Scale)
	}
	o.validated = true
	return nil
}

// IsNodelink returns true if the view is drawn with Graphviz.
func (o *Options) IsNodelink() bool {
	return o.Diagram == DiagramNodelink
}

// NodelinkOptions returns the Graphviz options.
func (o *Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{Detailed: o.Detailed, Ranked: o.Ranked}
}

// ArtifactKeyOpts returns cache key options for one format. Options that do
// not affect the format's bytes are left out so equal artifacts share
// entries.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatJSON:
		return k
	case FormatDOT:
		k.Detailed, k.Engine = o.Detailed, string(nodelink.EngineFor(o.NodelinkOptions()))
		return k
	}

	k.Diagram = o.Diagram
	if o.IsNodelink() {
		k.Detailed, k.Engine = o.Detailed, string(nodelink.EngineFor(o.NodelinkOptions()))
	} else {
		k.Style, k.Background = o.Style, o.Background
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}
