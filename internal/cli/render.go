package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/gitdraw/pkg/config"
	"github.com/matzehuels/gitdraw/pkg/history"
	"github.com/matzehuels/gitdraw/pkg/pipeline"
	"github.com/matzehuels/gitdraw/pkg/render/svg"
)

// renderOpts holds the command-line flags for the render command. Flags that
// are not set leave the view file's [render] table in charge.
type renderOpts struct {
	output     string   // output file (single format) or base path
	formats    string   // comma-separated formats
	style      string   // native SVG style
	diagram    string   // native or nodelink
	ranked     bool     // graphviz dot instead of neato for nodelink
	detailed   bool     // tag details in DOT labels
	background bool     // fill the SVG background
	scale      float64  // PNG scale
	exec       []string // extra commands appended to the script
	frames     string   // directory for per-operation SVG frames
	noCache    bool
	refresh    bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [view.toml]",
		Short: "Render a commit history view",
		Long: `Render builds the view described by a TOML file, replays its script and any
--exec commands, and writes the result in each requested format.

Without a file an empty view is rendered, which is useful with --exec:

  gitdraw render --exec "git commit" --exec "git checkout -b dev" -o demo.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd.Context(), newUI(cmd.OutOrStdout()), input, cmd.Flags(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg, png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.style, "style", pipeline.DefaultStyle, "SVG style: "+strings.Join(svg.Styles, ", "))
	cmd.Flags().StringVarP(&opts.diagram, "diagram", "d", pipeline.DefaultDiagram, "diagram: native, nodelink")
	cmd.Flags().BoolVar(&opts.ranked, "ranked", false, "use ranked graphviz layout (nodelink)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "list tags in node labels (dot, nodelink)")
	cmd.Flags().BoolVar(&opts.background, "background", false, "paint the SVG background")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().StringArrayVarP(&opts.exec, "exec", "e", nil, "command to run after the view's script (repeatable)")
	cmd.Flags().StringVar(&opts.frames, "frames", "", "write one SVG per operation into this directory")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")

	return cmd
}

// pipelineOptions overlays the flags the user set on the view's render table.
func (o renderOpts) pipelineOptions(flags *pflag.FlagSet, defaults config.Render) pipeline.Options {
	opts := pipeline.OptionsFrom(defaults)
	if flags.Changed("format") {
		opts.Formats = parseFormats(o.formats)
	}
	if flags.Changed("style") {
		opts.Style = o.style
	}
	if flags.Changed("diagram") {
		opts.Diagram = o.diagram
	}
	if flags.Changed("ranked") {
		opts.Ranked = o.ranked
	}
	if flags.Changed("detailed") {
		opts.Detailed = o.detailed
	}
	if flags.Changed("background") {
		opts.Background = o.background
	}
	if flags.Changed("scale") {
		opts.Scale = o.scale
	}
	opts.Refresh = o.refresh
	return opts
}

func loadView(path string) (*config.File, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func (c *CLI) runRender(ctx context.Context, out ui, input string, flags *pflag.FlagSet, o renderOpts) error {
	prog := newProgress(c.Logger)

	view, err := loadView(input)
	if err != nil {
		return err
	}
	view.Script = append(view.Script, o.exec...)
	prog.phase("load")

	opts := o.pipelineOptions(flags, view.Render)
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(o.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	sp := newSpinner(ctx, "Rendering "+displayName(input))
	sp.result = out
	sp.Start()
	result, err := runner.Execute(ctx, view, opts)
	if err != nil {
		sp.StopWithError("Render failed")
		return err
	}
	sp.StopWithSuccess("Rendered " + displayName(input))
	prog.phase("render")

	for _, line := range result.Log {
		if line != "" {
			out.commandOutput(line)
		}
	}

	base := basePath(o.output, input)
	for _, format := range opts.Formats {
		path := base + "." + format
		if o.output != "" && len(opts.Formats) == 1 {
			path = o.output
		}
		if err := writeOutput(path, result.Artifacts[format]); err != nil {
			return err
		}
		out.file(path)
	}
	out.stats(result.Stats, result.CacheInfo.RenderHit)
	prog.phase("write")

	if o.frames != "" {
		n, err := c.writeFrames(ctx, out, runner, view, opts, o.frames)
		if err != nil {
			return err
		}
		out.detail("%d frames in %s", n, o.frames)
		prog.phase("frames")
	}

	prog.done("Done")
	return nil
}

// writeFrames rebuilds the view with a frame-keeping canvas so every
// operation leaves one SVG behind.
func (c *CLI) writeFrames(ctx context.Context, out ui, runner *pipeline.Runner, view *config.File, opts pipeline.Options, dir string) (int, error) {
	if opts.IsNodelink() {
		out.warn("frames are always drawn as native diagrams")
	}
	style, err := svg.StyleByName(opts.Style)
	if err != nil {
		return 0, err
	}
	svgOpts := []svg.Option{svg.WithStyle(style)}
	if opts.Background {
		svgOpts = append(svgOpts, svg.WithBackground())
	}
	canvas := svg.NewCanvas(svgOpts...).KeepFrames()

	repo, _, err := runner.Build(ctx, view, history.WithRenderer(canvas))
	if err != nil {
		return 0, err
	}
	repo.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create frames dir: %w", err)
	}
	frames := canvas.Frames()
	for i, frame := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame-%03d.svg", i))
		if err := writeOutput(path, frame); err != nil {
			return 0, err
		}
	}
	return len(frames), nil
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. If output carries a
// format extension (.svg, .pdf, etc.), that extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return "history"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func displayName(input string) string {
	if input == "" {
		return "empty view"
	}
	return filepath.Base(input)
}
