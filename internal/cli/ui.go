package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gitdraw/pkg/layout"
	"github.com/matzehuels/gitdraw/pkg/pipeline"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")

	// Ref colors follow the classic diagram style: amber branches, lavender
	// remote branches, red HEAD.
	colorBranch = lipgloss.Color("#FFCC66")
	colorRemote = lipgloss.Color("#CCCCFF")
	colorHead   = lipgloss.Color("#CC3300")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError     = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// refStyle colors a ref name by its kind.
func refStyle(name string) lipgloss.Style {
	switch layout.ClassifyTag(name) {
	case layout.TagHead:
		return lipgloss.NewStyle().Foreground(colorHead).Bold(true)
	case layout.TagRemote:
		return lipgloss.NewStyle().Foreground(colorRemote)
	default:
		return lipgloss.NewStyle().Foreground(colorBranch)
	}
}

// renderRefs joins ref names, each in its own color.
func renderRefs(refs []string) string {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = refStyle(ref).Render(ref)
	}
	return strings.Join(parts, StyleDim.Render(", "))
}

// quotedRef matches the 'name' a git-style command reports.
var quotedRef = regexp.MustCompile(`'([^']+)'`)

// =============================================================================
// Output
// =============================================================================

// ui writes status lines for one command. Commands build it from
// cmd.OutOrStdout() so tests can capture what the user would see.
type ui struct {
	w io.Writer
}

func newUI(w io.Writer) ui {
	if w == nil {
		w = os.Stdout
	}
	return ui{w: w}
}

func (u ui) line(s string) {
	fmt.Fprintln(u.w, s)
}

func (u ui) success(format string, args ...any) {
	u.line(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (u ui) failure(format string, args ...any) {
	u.line(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func (u ui) warn(format string, args ...any) {
	u.line(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (u ui) info(format string, args ...any) {
	u.line(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func (u ui) detail(format string, args ...any) {
	u.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (u ui) file(path string) {
	u.line("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func (u ui) field(key, value string) {
	u.line(styleKey.Render(key) + " " + StyleValue.Render(value))
}

func (u ui) nextStep(description, cmd string) {
	u.line(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// commandOutput prints one line of script output with its ref highlighted,
// e.g. "Switched to a new branch 'feature'".
func (u ui) commandOutput(text string) {
	text = quotedRef.ReplaceAllStringFunc(text, func(m string) string {
		ref := m[1 : len(m)-1]
		return "'" + refStyle(ref).Render(ref) + "'"
	})
	u.info("%s", text)
}

// stats prints a one-line summary of a rendered view.
func (u ui) stats(s pipeline.Stats, cached bool) {
	u.line(statsLine(s, cached))
}

func statsLine(s pipeline.Stats, cached bool) string {
	parts := []string{fmt.Sprintf("%d commits", s.CommitCount)}
	if s.TagCount > 0 {
		parts = append(parts, fmt.Sprintf("%d refs", s.TagCount))
	}
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}

	status := styleComputed.Render("fresh")
	if cached {
		status = styleCached.Render("cached")
	}
	parts = append(parts, status)
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}
