package svg

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/layout"
)

// Style controls how scene elements are drawn.
type Style interface {
	// Name identifies the style on the command line and in cache keys.
	Name() string
	// RenderDefs writes <defs> and <style> content. markerID names the
	// arrowhead marker pointers refer to.
	RenderDefs(buf *bytes.Buffer, markerID string)
	// RenderBackground fills the view.
	RenderBackground(buf *bytes.Buffer, width, height float64)
	// RenderPointer writes the line from a commit to its parent.
	RenderPointer(buf *bytes.Buffer, p graph.Pointer, id, markerID string)
	// RenderCommit writes a commit circle.
	RenderCommit(buf *bytes.Buffer, c graph.Commit, id string, radius float64)
	// RenderLabel writes the id label under a commit.
	RenderLabel(buf *bytes.Buffer, c graph.Commit)
	// RenderTag writes a ref label.
	RenderTag(buf *bytes.Buffer, t graph.Tag)
	// RenderDisplay writes the current-branch text.
	RenderDisplay(buf *bytes.Buffer, text string)
}

// palette is the set of colors a paletteStyle draws with.
type palette struct {
	background    string
	commitFill    string
	commitStroke  string
	currentFill   string
	currentStroke string
	pointer       string
	label         string
	tagFill       string
	tagStroke     string
	tagText       string
	remoteFill    string
	remoteStroke  string
	headFill      string
	headStroke    string
	headText      string
	display       string
}

type paletteStyle struct {
	name string
	p    palette
}

// Classic is the light style of the original interactive views.
func Classic() Style {
	return paletteStyle{name: "classic", p: palette{
		background:    "#FFFFFF",
		commitFill:    "#EEE",
		commitStroke:  "#888",
		currentFill:   "#CCFFCC",
		currentStroke: "#339900",
		pointer:       "#666",
		label:         "#333",
		tagFill:       "#FFCC66",
		tagStroke:     "#CC9900",
		tagText:       "#000",
		remoteFill:    "#CCCCFF",
		remoteStroke:  "#6666CC",
		headFill:      "#CC3300",
		headStroke:    "#661100",
		headText:      "#FFF",
		display:       "#000",
	}}
}

// Dark suits dark page backgrounds.
func Dark() Style {
	return paletteStyle{name: "dark", p: palette{
		background:    "#1E1E2E",
		commitFill:    "#45475A",
		commitStroke:  "#9399B2",
		currentFill:   "#A6E3A1",
		currentStroke: "#40A02B",
		pointer:       "#9399B2",
		label:         "#CDD6F4",
		tagFill:       "#F9E2AF",
		tagStroke:     "#DF8E1D",
		tagText:       "#1E1E2E",
		remoteFill:    "#B4BEFE",
		remoteStroke:  "#7287FD",
		headFill:      "#F38BA8",
		headStroke:    "#D20F39",
		headText:      "#1E1E2E",
		display:       "#CDD6F4",
	}}
}

// Styles lists the names accepted by StyleByName.
var Styles = []string{"classic", "dark"}

// StyleByName returns the named style.
func StyleByName(name string) (Style, error) {
	switch name {
	case "", "classic":
		return Classic(), nil
	case "dark":
		return Dark(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown style %q (want one of %v)", name, slices.Clone(Styles))
	}
}

func (s paletteStyle) Name() string { return s.name }

func (s paletteStyle) RenderDefs(buf *bytes.Buffer, markerID string) {
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <marker id="%s" refX="5" refY="5" markerUnits="strokeWidth" markerWidth="4" markerHeight="3" orient="auto" viewBox="0 0 10 10">`+"\n", markerID)
	fmt.Fprintf(buf, `      <path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/>`+"\n", s.p.pointer)
	buf.WriteString("    </marker>\n")
	buf.WriteString("  </defs>\n")

	fmt.Fprintf(buf, `  <style>
    .commit { stroke-width: 3; }
    .commit-pointer { stroke: %s; stroke-width: 2; }
    .id-label { font: 12px monospace; text-anchor: middle; fill: %s; }
    .branch-tag rect { fill: %s; stroke: %s; stroke-width: 1; }
    .branch-tag text { font: 11px sans-serif; text-anchor: middle; fill: %s; }
    .branch-tag.remote-branch rect { fill: %s; stroke: %s; }
    .branch-tag.head-tag rect { fill: %s; stroke: %s; }
    .branch-tag.head-tag text { fill: %s; font-weight: bold; }
    .current-branch-display { font: 14px sans-serif; fill: %s; }
  </style>
`,
		s.p.pointer, s.p.label,
		s.p.tagFill, s.p.tagStroke, s.p.tagText,
		s.p.remoteFill, s.p.remoteStroke,
		s.p.headFill, s.p.headStroke, s.p.headText,
		s.p.display)
}

func (s paletteStyle) RenderBackground(buf *bytes.Buffer, width, height float64) {
	fmt.Fprintf(buf, `  <rect class="background" x="0" y="0" width="%s" height="%s" fill="%s"/>`+"\n",
		num(width), num(height), s.p.background)
}

func (s paletteStyle) RenderPointer(buf *bytes.Buffer, p graph.Pointer, id, markerID string) {
	fmt.Fprintf(buf, `  <line id="%s" class="commit-pointer" x1="%s" y1="%s" x2="%s" y2="%s" marker-end="url(#%s)"/>`+"\n",
		escape(id), num(p.X1), num(p.Y1), num(p.X2), num(p.Y2), markerID)
}

func (s paletteStyle) RenderCommit(buf *bytes.Buffer, c graph.Commit, id string, radius float64) {
	fill, stroke := s.p.commitFill, s.p.commitStroke
	class := "commit"
	if c.Current {
		fill, stroke = s.p.currentFill, s.p.currentStroke
		class += " current"
	}
	fmt.Fprintf(buf, `  <circle id="%s" class="%s" cx="%s" cy="%s" r="%s" style="fill: %s; stroke: %s;"/>`+"\n",
		escape(id), class, num(c.CX), num(c.CY), num(radius), fill, stroke)
}

func (s paletteStyle) RenderLabel(buf *bytes.Buffer, c graph.Commit) {
	fmt.Fprintf(buf, `  <text class="id-label" x="%s" y="%s">%s</text>`+"\n",
		num(c.Label.X), num(c.Label.Y), escape(c.LabelText()))
}

func (s paletteStyle) RenderTag(buf *bytes.Buffer, t graph.Tag) {
	fmt.Fprintf(buf, `  <g class="%s">`+"\n", tagClass(t.Kind))
	fmt.Fprintf(buf, `    <rect x="%s" y="%s" width="%s" height="%s"/>`+"\n",
		num(t.Left()), num(t.Y), num(t.Width), num(layout.TagHeight))
	fmt.Fprintf(buf, `    <text x="%s" y="%s">%s</text>`+"\n", num(t.X), num(t.TextY()), escape(t.Name))
	buf.WriteString("  </g>\n")
}

func (s paletteStyle) RenderDisplay(buf *bytes.Buffer, text string) {
	p := layout.DisplayPosition
	fmt.Fprintf(buf, `  <text class="current-branch-display" x="%s" y="%s">%s</text>`+"\n",
		num(p.X), num(p.Y), escape(text))
}

func tagClass(kind layout.TagKind) string {
	switch kind {
	case layout.TagRemote:
		return "branch-tag remote-branch"
	case layout.TagHead:
		return "branch-tag head-tag"
	default:
		return "branch-tag"
	}
}
