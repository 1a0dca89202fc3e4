// Package config loads history view definitions from TOML files.
//
// A file describes the initial commits of a view, its canvas, an optional
// script of git commands to replay, and render defaults:
//
//	name = "branching"
//	current_branch = "master"
//	width = 700
//	height = 400
//	commit_radius = 20
//	script = ["git checkout -b dev", "git commit"]
//
//	[[commits]]
//	id = "e137e9b"
//	tags = ["master"]
//
//	[render]
//	formats = ["svg", "dot"]
//	style = "dark"
//
// Unknown keys are rejected so typos do not silently fall back to defaults.
package config

import (
	"bytes"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gitdraw/pkg/command"
	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/history"
	"github.com/matzehuels/gitdraw/pkg/layout"
)

// File is the decoded form of a view file.
type File struct {
	Name          string  `json:"name,omitempty" toml:"name,omitempty"`
	CurrentBranch string  `json:"current_branch,omitempty" toml:"current_branch,omitempty"`
	Width         float64 `json:"width,omitempty" toml:"width,omitempty"`
	Height        float64 `json:"height,omitempty" toml:"height,omitempty"`
	CommitRadius  float64 `json:"commit_radius,omitempty" toml:"commit_radius,omitempty"`

	// Head is checked out after the commits are created. A commit id
	// detaches HEAD.
	Head string `json:"head,omitempty" toml:"head,omitempty"`

	Commits []history.CommitData `json:"commits,omitempty" toml:"commits,omitempty"`
	Script  []string             `json:"script,omitempty" toml:"script,omitempty"`
	Render  Render               `json:"render,omitempty" toml:"render,omitempty"`
}

// Render holds render defaults. Values are validated by the pipeline.
type Render struct {
	Formats    []string `json:"formats,omitempty" toml:"formats,omitempty"`
	Style      string   `json:"style,omitempty" toml:"style,omitempty"`
	Diagram    string   `json:"diagram,omitempty" toml:"diagram,omitempty"`
	Ranked     bool     `json:"ranked,omitempty" toml:"ranked,omitempty"`
	Detailed   bool     `json:"detailed,omitempty" toml:"detailed,omitempty"`
	Background bool     `json:"background,omitempty" toml:"background,omitempty"`
	Scale      float64  `json:"scale,omitempty" toml:"scale,omitempty"`
}

// Default returns the configuration of an empty view on master.
func Default() *File {
	p := layout.DefaultParams()
	return &File{
		Name:          history.DefaultName,
		CurrentBranch: history.DefaultBranch,
		Width:         p.Width,
		Height:        p.Height,
		CommitRadius:  p.Radius,
	}
}

// Load reads and validates a view file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return f, nil
}

// Parse decodes and validates TOML view data.
func Parse(data []byte) (*File, error) {
	var f File
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode view file")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks everything that can be checked without building the view:
// canvas size, ref and id syntax, and script syntax.
func (f *File) Validate() error {
	if err := f.Params().WithDefaults().Validate(); err != nil {
		return err
	}
	if f.CurrentBranch != "" {
		if err := errors.ValidateRefName(f.CurrentBranch); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "current_branch")
		}
	}
	for i, c := range f.Commits {
		if c.ID != "" {
			if err := errors.ValidateCommitID(c.ID); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "commits[%d]", i)
			}
		}
		for _, tag := range c.Tags {
			if err := errors.ValidateRefName(tag); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "commits[%d].tags", i)
			}
		}
	}
	for i, line := range f.Script {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := command.Parse(line); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "script[%d]", i)
		}
	}
	return nil
}

// Params returns the canvas parameters. Zero values mean defaults.
func (f *File) Params() layout.Params {
	return layout.Params{Width: f.Width, Height: f.Height, Radius: f.CommitRadius}
}

// HistoryConfig converts the file into the configuration of a repository.
func (f *File) HistoryConfig() history.Config {
	return history.Config{
		Name:          f.Name,
		CurrentBranch: f.CurrentBranch,
		Commits:       slices.Clone(f.Commits),
		Params:        f.Params(),
	}
}

// Open builds the repository the file describes: it creates the commits,
// checks out Head, and runs the script.
func (f *File) Open(opts ...history.Option) (*history.Repository, error) {
	repo, err := history.New(f.HistoryConfig(), opts...)
	if err != nil {
		return nil, err
	}
	if f.Head != "" {
		if err := repo.Checkout(f.Head); err != nil {
			repo.Close()
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "head")
		}
	}
	if _, err := command.RunScript(repo, f.Script); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// Snapshot captures the current state of repo as a file that Open turns back
// into an equal view.
func Snapshot(repo *history.Repository) *File {
	p := repo.Params()
	f := &File{
		Name:          repo.Name(),
		CurrentBranch: repo.CurrentBranch(),
		Width:         p.Width,
		Height:        p.Height,
		CommitRadius:  p.Radius,
	}

	var head string
	for _, c := range repo.Commits() {
		data := history.CommitData{ID: c.ID}
		if c.Parent != history.RootID {
			data.Parent = c.Parent
		}
		for _, tag := range c.Tags {
			if tag == history.HeadRef {
				head = c.ID
				continue
			}
			data.Tags = append(data.Tags, tag)
		}
		f.Commits = append(f.Commits, data)
	}

	if repo.Detached() {
		// Any branch works as the load-time branch since Head detaches
		// right after.
		f.CurrentBranch = firstBranch(f.Commits)
		f.Head = head
	}
	return f
}

func firstBranch(commits []history.CommitData) string {
	for _, c := range commits {
		if len(c.Tags) > 0 {
			return c.Tags[0]
		}
	}
	return history.DefaultBranch
}

// Encode writes f as TOML.
func (f *File) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(f)
}
