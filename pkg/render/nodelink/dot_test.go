package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/history"
)

func demoScene(t *testing.T) graph.Scene {
	t.Helper()
	repo, err := history.New(history.Config{Name: "demo"}, history.WithIDFunc(history.SequentialIDs("c")))
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if _, err := repo.Commit(history.CommitData{}); err != nil {
			t.Fatal(err)
		}
	}
	return repo.Scene()
}

func TestToDOTPinned(t *testing.T) {
	dot := ToDOT(demoScene(t), Options{})

	for _, want := range []string{
		`digraph "demo" {`,
		"layout=neato;",
		`"initial" [shape=point`,
		`pos="-0.5556,2.7778!"`,
		`"c1" [label="c1..", pos="0.6944,2.7778!"];`,
		`"c2" [label="c2..", fillcolor="#CCFFCC", color="#339900", pos="1.9444,2.7778!"];`,
		`"c1" -> "initial";`,
		`"c2" -> "c1";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
}

func TestToDOTRanked(t *testing.T) {
	dot := ToDOT(demoScene(t), Options{Ranked: true, Detailed: true})

	if strings.Contains(dot, "pos=") {
		t.Error("ranked DOT should not pin positions")
	}
	if !strings.Contains(dot, "rankdir=RL;") {
		t.Error("ranked DOT should set rankdir")
	}
	if !strings.Contains(dot, `label="c2..\nmaster\nHEAD"`) {
		t.Errorf("detailed label missing refs:\n%s", dot)
	}
}

func TestEngineFor(t *testing.T) {
	if EngineFor(Options{}) != graphviz.NEATO {
		t.Error("pinned diagrams need neato")
	}
	if EngineFor(Options{Ranked: true}) != graphviz.DOT {
		t.Error("ranked diagrams need dot")
	}
}

func TestRenderSVG(t *testing.T) {
	opts := Options{}
	out, err := RenderSVG(context.Background(), ToDOT(demoScene(t), opts), EngineFor(opts))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(strings.TrimSpace(s[strings.Index(s, "<svg"):]), `<svg xmlns="http://www.w3.org/2000/svg" viewBox=`) {
		t.Errorf("root element not normalized:\n%.300s", s)
	}
	if !strings.Contains(s, "c2..") {
		t.Error("SVG should contain commit labels")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if out != want {
		t.Errorf("normalizeViewBox() = %s, want %s", out, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("SVG without viewBox should pass through")
	}
}
