package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/gitdraw/pkg/pipeline"
)

func TestUIWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	out := newUI(&buf)

	out.success("Wrote %s", "view.toml")
	out.warn("frames are always drawn as native diagrams")
	out.file("out/history.svg")
	out.field("Sessions", "memory")
	out.nextStep("Render it", "gitdraw render view.toml")

	got := stripANSI(buf.String())
	for _, want := range []string{
		iconSuccess + " Wrote view.toml",
		"frames are always drawn as native diagrams",
		iconArrow + " out/history.svg",
		"Sessions",
		"memory",
		"Render it: gitdraw render view.toml",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, "\n"); n != 5 {
		t.Errorf("wrote %d lines, want 5", n)
	}
}

func TestCommandOutputKeepsText(t *testing.T) {
	tests := []string{
		"Switched to a new branch 'feature'",
		"HEAD is now at c3",
		"Created branch 'origin/main'",
	}

	for _, text := range tests {
		var buf bytes.Buffer
		newUI(&buf).commandOutput(text)
		if !strings.Contains(stripANSI(buf.String()), text) {
			t.Errorf("commandOutput(%q) = %q", text, buf.String())
		}
	}
}

func TestStatsLine(t *testing.T) {
	tests := []struct {
		name   string
		stats  pipeline.Stats
		cached bool
		want   []string
		absent string
	}{
		{"fresh with refs", pipeline.Stats{CommitCount: 5, TagCount: 3}, false, []string{"5 commits", "3 refs", "fresh"}, "cached"},
		{"cached without refs", pipeline.Stats{CommitCount: 0}, true, []string{"0 commits", "cached"}, "refs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := stripANSI(statsLine(tt.stats, tt.cached))
			for _, want := range tt.want {
				if !strings.Contains(line, want) {
					t.Errorf("statsLine() = %q, lacks %q", line, want)
				}
			}
			if strings.Contains(line, tt.absent) {
				t.Errorf("statsLine() = %q, has %q", line, tt.absent)
			}
		})
	}
}

func TestRenderRefs(t *testing.T) {
	got := stripANSI(renderRefs([]string{"master", "HEAD", "origin/master"}))
	if got != "master, HEAD, origin/master" {
		t.Errorf("renderRefs() = %q", got)
	}
	if renderRefs(nil) != "" {
		t.Error("renderRefs(nil) not empty")
	}
}

// stripANSI drops terminal escape sequences.
func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			for i < len(s) && !(s[i] >= 'a' && s[i] <= 'z' || s[i] >= 'A' && s[i] <= 'Z') {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
