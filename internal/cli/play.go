package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitdraw/pkg/command"
	"github.com/matzehuels/gitdraw/pkg/config"
	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/history"
	"github.com/matzehuels/gitdraw/pkg/pipeline"
	"github.com/matzehuels/gitdraw/pkg/session"
)

const (
	maxOutputLines = 8
	maxTableRows   = 10
	gridCellWidth  = 3
)

var playHelp = []string{
	"git commit [<id>]          add a commit on HEAD",
	"git branch [<name>]        create or list branches",
	"git checkout [-b] <ref>    move HEAD",
	"git reset <ref>            move the current branch",
	":save [path]               write the view as TOML",
	":clear                     clear this log",
	":quit                      leave",
}

type playOpts struct {
	save       string
	session    string
	sessionDir string
}

func (c *CLI) playCommand() *cobra.Command {
	var opts playOpts

	cmd := &cobra.Command{
		Use:   "play [view.toml]",
		Short: "Edit a history view interactively",
		Long: `Play opens a view in the terminal and runs git-like commands against it,
redrawing the commit graph after each one. Use :save to write the result.

With --session the view is resumed from, and saved to, the local session store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runPlay(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVar(&opts.save, "save", "", "file written by :save (default: the input file or "+defaultConfigFile+")")
	cmd.Flags().StringVar(&opts.session, "session", "", "session id to resume and save")
	cmd.Flags().StringVar(&opts.sessionDir, "session-dir", "", "session store directory (default ~/.config/gitdraw/sessions)")

	return cmd
}

func (c *CLI) runPlay(ctx context.Context, input string, o playOpts) error {
	view, err := loadView(input)
	if err != nil {
		return err
	}

	var store session.Store
	if o.session != "" {
		fs, err := session.NewFileStore(o.sessionDir)
		if err != nil {
			return err
		}
		defer fs.Close()
		store = fs

		sess, err := fs.Get(ctx, o.session)
		if err != nil {
			return err
		}
		if sess != nil {
			view = sess.View
			c.Logger.Info("resumed session", "id", o.session, "updated", sess.UpdatedAt)
		}
	}

	repo, lines, err := pipeline.NewRunner(nil, nil, c.Logger).Build(ctx, view)
	if err != nil {
		return err
	}
	defer repo.Close()

	savePath := o.save
	if savePath == "" {
		savePath = input
	}
	if savePath == "" {
		savePath = defaultConfigFile
	}

	m := newPlayModel(ctx, repo, view.Render, savePath)
	m.store, m.sessionID = store, o.session
	m.say(false, lines...)

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// playModel - REPL over a history view
// =============================================================================

type playModel struct {
	ctx      context.Context
	repo     *history.Repository
	render   config.Render
	savePath string

	store     session.Store
	sessionID string

	input   []rune
	history []string
	recall  int

	output []outputLine
	quit   bool
}

type outputLine struct {
	text   string
	failed bool
}

func newPlayModel(ctx context.Context, repo *history.Repository, render config.Render, savePath string) *playModel {
	return &playModel{ctx: ctx, repo: repo, render: render, savePath: savePath}
}

func (m *playModel) Init() tea.Cmd {
	return nil
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quit = true
		return m, tea.Quit
	case tea.KeyEnter:
		line := strings.TrimSpace(string(m.input))
		m.input = nil
		if line == "" {
			return m, nil
		}
		m.history = append(m.history, line)
		m.recall = len(m.history)
		return m, m.run(line)
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyUp:
		if m.recall > 0 {
			m.recall--
			m.input = []rune(m.history[m.recall])
		}
	case tea.KeyDown:
		if m.recall < len(m.history)-1 {
			m.recall++
			m.input = []rune(m.history[m.recall])
		} else {
			m.recall = len(m.history)
			m.input = nil
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, key.Runes...)
	}
	return m, nil
}

// run executes one input line.
func (m *playModel) run(line string) tea.Cmd {
	if strings.HasPrefix(line, ":") {
		return m.meta(strings.Fields(line[1:]))
	}

	out, err := command.Run(m.repo, line)
	if err != nil {
		m.say(true, err.Error())
		return nil
	}
	m.say(false, strings.Split(out, "\n")...)
	return nil
}

func (m *playModel) meta(args []string) tea.Cmd {
	if len(args) == 0 {
		m.say(true, "empty command, try :help")
		return nil
	}

	switch args[0] {
	case "q", "quit", "exit":
		m.quit = true
		return tea.Quit
	case "help", "h":
		m.say(false, playHelp...)
	case "clear":
		m.output = nil
	case "save", "w":
		path := m.savePath
		if len(args) > 1 {
			path = args[1]
		}
		if err := m.save(path); err != nil {
			m.say(true, err.Error())
			return nil
		}
		m.savePath = path
		m.say(false, "saved "+path)
	default:
		m.say(true, fmt.Sprintf("unknown command :%s, try :help", args[0]))
	}
	return nil
}

// save writes the view to path and, with a session store, to the session.
func (m *playModel) save(path string) error {
	view := config.Snapshot(m.repo)
	view.Render = m.render

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := view.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if m.store != nil {
		sess := session.New(view, session.DefaultTTL)
		sess.ID = m.sessionID
		if err := m.store.Set(m.ctx, sess); err != nil {
			return fmt.Errorf("save session %s: %w", m.sessionID, err)
		}
	}
	return nil
}

func (m *playModel) say(failed bool, lines ...string) {
	for _, l := range lines {
		if l == "" {
			continue
		}
		m.output = append(m.output, outputLine{text: l, failed: failed})
	}
	if n := len(m.output); n > maxOutputLines {
		m.output = m.output[n-maxOutputLines:]
	}
}

func (m *playModel) View() string {
	if m.quit {
		return ""
	}
	scene := m.repo.Scene()

	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName) + " " + StyleDim.Render(scene.Name))
	b.WriteString("\n")
	b.WriteString(StyleHighlight.Render(scene.Display))
	b.WriteString("\n\n")

	if len(scene.Commits) > 0 {
		b.WriteString(drawGrid(scene, m.repo.Params().Step()))
		b.WriteString("\n")
		b.WriteString(commitTable(scene))
		b.WriteString("\n")
	}

	for _, l := range m.output {
		if l.failed {
			b.WriteString(StyleError.Render(l.text))
		} else {
			b.WriteString(StyleValue.Render(l.text))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleHighlight.Render("> ") + string(m.input) + "█")
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("⏎ run  ↑/↓ history  :save  :help  esc quit"))
	return b.String()
}

// =============================================================================
// Terminal Drawing
// =============================================================================

// drawGrid draws the commit graph on a character grid, one cell per layout
// step. The root is '·', commits are 'o' and the HEAD commit is '@'.
func drawGrid(scene graph.Scene, step float64) string {
	type cell struct{ row, col int }
	at := func(x, y float64) cell {
		return cell{
			row: int(math.Round((y - scene.Root.Y) / step)),
			col: int(math.Round((x - scene.Root.X) / step)),
		}
	}

	cells := make(map[string]cell, len(scene.Commits)+1)
	cells[history.RootID] = cell{}
	minRow, maxRow, maxCol := 0, 0, 0
	for _, c := range scene.Commits {
		p := at(c.CX, c.CY)
		cells[c.ID] = p
		minRow, maxRow, maxCol = min(minRow, p.row), max(maxRow, p.row), max(maxCol, p.col)
	}

	grid := make([][]rune, maxRow-minRow+1)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", (maxCol+1)*gridCellWidth))
	}
	put := func(p cell, offset int, r rune) {
		x := p.col*gridCellWidth + offset
		if x >= 0 && x < len(grid[p.row-minRow]) {
			grid[p.row-minRow][x] = r
		}
	}

	put(cells[history.RootID], 0, '·')
	for _, c := range scene.Commits {
		p, parent := cells[c.ID], cells[c.Parent]
		switch {
		case p.row == parent.row:
			put(p, -2, '─')
			put(p, -1, '─')
		case p.row < parent.row:
			put(p, -1, '╱')
		default:
			put(p, -1, '╲')
		}
		marker := 'o'
		if c.Current {
			marker = '@'
		}
		put(p, 0, marker)
	}

	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return StyleValue.Render(strings.Join(lines, "\n")) + "\n"
}

// commitTable lists the most recent commits with their refs.
func commitTable(scene graph.Scene) string {
	commits := scene.Commits
	if len(commits) > maxTableRows {
		commits = commits[len(commits)-maxTableRows:]
	}

	rows := make([][]string, 0, len(commits))
	for _, c := range commits {
		marker := ""
		if c.Current {
			marker = "●"
		}
		rows = append(rows, []string{marker, c.ID, c.Parent, renderRefs(c.Tags)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Commit", "Parent", "Refs").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return headerStyle
			}
			if row >= 0 && row < len(commits) && commits[row].Current {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col == 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}
