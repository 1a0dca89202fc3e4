package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/gitdraw/pkg/graph"
)

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	style      Style
	background bool
}

// WithStyle selects the style. Defaults to Classic.
func WithStyle(s Style) Option {
	return func(r *renderer) {
		if s != nil {
			r.style = s
		}
	}
}

// WithBackground paints the style's background color behind the view.
func WithBackground() Option { return func(r *renderer) { r.background = true } }

// Render draws scene as an SVG document.
//
// Pointers are drawn first so circles cover their ends, then circles, id
// labels, ref labels, and the current-branch text.
func Render(scene graph.Scene, opts ...Option) []byte {
	r := renderer{style: Classic()}
	for _, opt := range opts {
		opt(&r)
	}

	markerID := escape(scene.Name + "-triangle")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" class="history-view" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		escape(scene.Name), num(scene.Width), num(scene.Height), num(scene.Width), num(scene.Height))

	r.style.RenderDefs(&buf, markerID)
	if r.background {
		r.style.RenderBackground(&buf, scene.Width, scene.Height)
	}

	for _, p := range scene.Pointers {
		r.style.RenderPointer(&buf, p, scene.Name+"-"+p.ID+"-to-"+p.Parent, markerID)
	}
	for _, c := range scene.Commits {
		r.style.RenderCommit(&buf, c, scene.Name+"-"+c.ID, scene.Radius)
	}
	for _, c := range scene.Commits {
		r.style.RenderLabel(&buf, c)
	}
	for _, t := range scene.Tags {
		r.style.RenderTag(&buf, t)
	}
	r.style.RenderDisplay(&buf, scene.Display)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// num formats a coordinate with at most two decimals.
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
