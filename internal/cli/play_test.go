package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitdraw/pkg/config"
	"github.com/matzehuels/gitdraw/pkg/history"
	"github.com/matzehuels/gitdraw/pkg/session"
)

func newTestModel(t *testing.T, savePath string) *playModel {
	t.Helper()
	repo, err := history.New(history.Config{},
		history.WithIDFunc(history.SequentialIDs("c")),
		history.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	return newPlayModel(context.Background(), repo, config.Render{Style: "dark"}, savePath)
}

// typeLine feeds line to the model as keystrokes followed by enter.
func typeLine(m *playModel, line string) tea.Cmd {
	for _, r := range line {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func lastOutput(m *playModel) outputLine {
	if len(m.output) == 0 {
		return outputLine{}
	}
	return m.output[len(m.output)-1]
}

func TestPlayRunsCommands(t *testing.T) {
	m := newTestModel(t, "")

	typeLine(m, "git commit")
	typeLine(m, "git checkout -b dev")
	typeLine(m, "git commit")

	if got := m.repo.CurrentBranch(); got != "dev" {
		t.Errorf("CurrentBranch = %q, want dev", got)
	}
	if head, _ := m.repo.Head(); head.ID != "c2" {
		t.Errorf("HEAD = %q, want c2", head.ID)
	}

	view := m.View()
	for _, want := range []string{"Current Branch: dev", "c1", "c2", "@"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestPlayReportsErrors(t *testing.T) {
	m := newTestModel(t, "")

	typeLine(m, "git checkout nowhere")
	if out := lastOutput(m); !out.failed || !strings.Contains(out.text, "nowhere") {
		t.Errorf("last output = %+v, want failure naming the ref", out)
	}

	typeLine(m, ":frobnicate")
	if out := lastOutput(m); !out.failed {
		t.Errorf("unknown meta command not reported: %+v", out)
	}
}

func TestPlayHistoryRecall(t *testing.T) {
	m := newTestModel(t, "")
	typeLine(m, "git commit")
	typeLine(m, "git branch dev")

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := string(m.input); got != "git branch dev" {
		t.Errorf("after up: %q", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := string(m.input); got != "git commit" {
		t.Errorf("after up x3: %q", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if len(m.input) != 0 {
		t.Errorf("down past the end should clear input, got %q", string(m.input))
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")})
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := string(m.input); got != "ab" {
		t.Errorf("after backspace: %q", got)
	}
}

func TestPlaySave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.toml")
	m := newTestModel(t, path)
	m.store = session.NewMemoryStore()
	m.sessionID = "resume-me"

	typeLine(m, "git commit")
	typeLine(m, "git checkout -b dev")
	typeLine(m, ":save")

	if out := lastOutput(m); out.failed {
		t.Fatalf("save failed: %s", out.text)
	}

	f, err := config.Load(path)
	if err != nil {
		t.Fatalf("saved file does not load: %v", err)
	}
	if f.CurrentBranch != "dev" || len(f.Commits) != 1 || f.Render.Style != "dark" {
		t.Errorf("saved view = %+v", f)
	}

	sess, err := m.store.Get(context.Background(), "resume-me")
	if err != nil || sess == nil {
		t.Fatalf("session not stored: %v", err)
	}
	if sess.View.CurrentBranch != "dev" {
		t.Errorf("session view on %q", sess.View.CurrentBranch)
	}
}

func TestPlayQuit(t *testing.T) {
	m := newTestModel(t, "")
	if cmd := typeLine(m, ":quit"); cmd == nil {
		t.Fatal(":quit returned no command")
	}
	if !m.quit || m.View() != "" {
		t.Error("model not quitting")
	}

	m = newTestModel(t, "")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil || !m.quit {
		t.Error("esc did not quit")
	}
}

func TestPlayOutputIsBounded(t *testing.T) {
	m := newTestModel(t, "")
	typeLine(m, ":help")
	typeLine(m, ":help")
	if len(m.output) > maxOutputLines {
		t.Errorf("output lines = %d, want at most %d", len(m.output), maxOutputLines)
	}
	typeLine(m, ":clear")
	if len(m.output) != 0 {
		t.Errorf("clear left %d lines", len(m.output))
	}
}

func TestDrawGrid(t *testing.T) {
	repo, err := history.New(history.Config{Commits: []history.CommitData{
		{ID: "a"},
		{ID: "b", Parent: "a", Tags: []string{"master"}},
		{ID: "c", Parent: "a", Tags: []string{"dev"}},
	}}, history.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	grid := drawGrid(repo.Scene(), repo.Params().Step())
	lines := strings.Split(strings.TrimRight(grid, "\n"), "\n")

	// c forks upward from a, so it sits on the first row.
	if len(lines) != 2 {
		t.Fatalf("grid has %d rows, want 2:\n%s", len(lines), grid)
	}
	if !strings.Contains(lines[0], "╱") || !strings.Contains(lines[1], "·──o──@") {
		t.Errorf("unexpected grid:\n%s", grid)
	}
}
