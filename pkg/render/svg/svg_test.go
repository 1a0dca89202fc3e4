package svg

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/history"
)

func demoRepo(t *testing.T, opts ...history.Option) *history.Repository {
	t.Helper()
	opts = append([]history.Option{history.WithIDFunc(history.SequentialIDs("c"))}, opts...)
	repo, err := history.New(history.Config{Name: "demo"}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Commit(history.CommitData{}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Branch("origin/master"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Commit(history.CommitData{}); err != nil {
		t.Fatal(err)
	}
	return repo
}

func assertWellFormed(t *testing.T, out []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(out))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("invalid XML: %v\n%s", err, out)
		}
	}
}

func TestRender(t *testing.T) {
	out := Render(demoRepo(t).Scene())
	assertWellFormed(t, out)

	s := string(out)
	for _, want := range []string{
		`viewBox="0 0 700 400" width="700" height="400"`,
		`<marker id="demo-triangle" refX="5" refY="5" markerUnits="strokeWidth" markerWidth="4" markerHeight="3" orient="auto" viewBox="0 0 10 10">`,
		`<path d="M 0 0 L 10 5 L 0 10 z"`,
		`<line id="demo-c1-to-initial" class="commit-pointer" x1="24" y1="200" x2="-8.8" y2="200" marker-end="url(#demo-triangle)"/>`,
		`<circle id="demo-c1" class="commit" cx="50" cy="200" r="20" style="fill: #EEE; stroke: #888;"/>`,
		`<circle id="demo-c2" class="commit current" cx="140" cy="200" r="20" style="fill: #CCFFCC; stroke: #339900;"/>`,
		`<text class="id-label" x="50" y="234">c1..</text>`,
		`<g class="branch-tag remote-branch">`,
		`<g class="branch-tag head-tag">`,
		`<text x="140" y="254">master</text>`,
		`<text class="current-branch-display" x="10" y="25">Current Branch: master</text>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %s", want)
		}
	}

	// Pointers are drawn beneath circles.
	if strings.Index(s, "<line") > strings.Index(s, "<circle") {
		t.Error("pointers should come before circles")
	}
}

func TestRenderEscapes(t *testing.T) {
	scene := graph.Scene{
		Name:    `a"b`,
		Width:   100,
		Height:  100,
		Radius:  10,
		Display: graph.BranchDisplay("x<y"),
	}
	out := Render(scene)
	assertWellFormed(t, out)
	if !strings.Contains(string(out), "x&lt;y") {
		t.Errorf("display text not escaped:\n%s", out)
	}
}

func TestRenderStyles(t *testing.T) {
	scene := demoRepo(t).Scene()

	dark := string(Render(scene, WithStyle(Dark()), WithBackground()))
	if !strings.Contains(dark, `class="background"`) || !strings.Contains(dark, "#1E1E2E") {
		t.Error("dark style with background should paint the background")
	}
	if strings.Contains(string(Render(scene)), `class="background"`) {
		t.Error("background should be opt-in")
	}
}

func TestStyleByName(t *testing.T) {
	for _, name := range Styles {
		s, err := StyleByName(name)
		if err != nil {
			t.Fatalf("StyleByName(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Name() = %q, want %q", s.Name(), name)
		}
	}
	if _, err := StyleByName("neon"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("StyleByName(neon) = %v", err)
	}
}

func TestCanvas(t *testing.T) {
	canvas := NewCanvas().KeepFrames()
	repo := demoRepo(t, history.WithRenderer(canvas))

	// New, two commits, one branch.
	if n := len(canvas.Frames()); n != 4 {
		t.Errorf("Frames() = %d, want 4", n)
	}
	if !bytes.Equal(canvas.Bytes(), Render(repo.Scene())) {
		t.Error("Bytes() should match the latest scene")
	}
	if prev, cur := canvas.HeadMove(); prev != "c1" || cur != "c2" {
		t.Errorf("HeadMove() = %s, %s", prev, cur)
	}

	last := NewCanvas()
	demoRepo(t, history.WithRenderer(last))
	if n := len(last.Frames()); n != 1 {
		t.Errorf("Frames() without KeepFrames = %d, want 1", n)
	}
}
