// Package command parses and runs the git-like command lines a history view
// understands:
//
//	git commit [<id>]
//	git branch [<name>]
//	git checkout <ref>
//	git checkout -b <name>
//	git reset [--soft | --mixed | --hard] <ref>
//
// The leading "git" is optional. Reset modes are accepted for familiarity;
// with no working tree they all move the branch the same way.
package command

import (
	"fmt"
	"strings"

	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/history"
)

// Op names a history operation.
type Op string

// Supported operations.
const (
	OpCommit   Op = "commit"
	OpBranch   Op = "branch"
	OpCheckout Op = "checkout"
	OpReset    Op = "reset"
)

// Command is a parsed command line.
type Command struct {
	Op Op

	// Arg is the commit id, branch name, or ref. Empty for a bare commit or
	// a branch listing.
	Arg string

	// Create is set by "checkout -b".
	Create bool

	// Mode is the reset mode flag without dashes, if one was given.
	Mode string
}

// Target is what commands operate on. *history.Repository satisfies it.
type Target interface {
	Commit(data history.CommitData) (history.Commit, error)
	Branch(name string) error
	Checkout(ref string) error
	Reset(ref string) error
	Branches() []string
	CurrentBranch() string
}

var _ Target = (*history.Repository)(nil)

var resetModes = map[string]bool{"soft": true, "mixed": true, "hard": true}

// Parse parses one command line.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) > 0 && fields[0] == "git" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return Command{}, errors.New(errors.ErrCodeInvalidCommand, "empty command")
	}

	op, args := Op(fields[0]), fields[1:]
	switch op {
	case OpCommit:
		return parseCommit(args)
	case OpBranch:
		if len(args) > 1 {
			return Command{}, usage(op, "git branch [<name>]")
		}
		return Command{Op: op, Arg: first(args)}, nil
	case OpCheckout:
		return parseCheckout(args)
	case OpReset:
		return parseReset(args)
	default:
		return Command{}, errors.New(errors.ErrCodeInvalidCommand, "unknown command %q (try commit, branch, checkout, or reset)", fields[0])
	}
}

func parseCommit(args []string) (Command, error) {
	if len(args) > 1 || (len(args) == 1 && strings.HasPrefix(args[0], "-")) {
		return Command{}, usage(OpCommit, "git commit [<id>]")
	}
	return Command{Op: OpCommit, Arg: first(args)}, nil
}

func parseCheckout(args []string) (Command, error) {
	switch {
	case len(args) == 1 && !strings.HasPrefix(args[0], "-"):
		return Command{Op: OpCheckout, Arg: args[0]}, nil
	case len(args) == 2 && args[0] == "-b":
		return Command{Op: OpCheckout, Arg: args[1], Create: true}, nil
	default:
		return Command{}, usage(OpCheckout, "git checkout [-b] <ref>")
	}
}

func parseReset(args []string) (Command, error) {
	cmd := Command{Op: OpReset}
	for _, a := range args {
		if mode, ok := strings.CutPrefix(a, "--"); ok {
			if !resetModes[mode] || cmd.Mode != "" {
				return Command{}, usage(OpReset, "git reset [--soft | --mixed | --hard] <ref>")
			}
			cmd.Mode = mode
			continue
		}
		if cmd.Arg != "" {
			return Command{}, usage(OpReset, "git reset [--soft | --mixed | --hard] <ref>")
		}
		cmd.Arg = a
	}
	if cmd.Arg == "" {
		return Command{}, usage(OpReset, "git reset [--soft | --mixed | --hard] <ref>")
	}
	return cmd, nil
}

func usage(op Op, form string) error {
	return errors.New(errors.ErrCodeInvalidCommand, "bad %s: usage: %s", op, form)
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// String returns the canonical command line.
func (c Command) String() string {
	parts := []string{"git", string(c.Op)}
	if c.Create {
		parts = append(parts, "-b")
	}
	if c.Mode != "" {
		parts = append(parts, "--"+c.Mode)
	}
	if c.Arg != "" {
		parts = append(parts, c.Arg)
	}
	return strings.Join(parts, " ")
}

// Mutates reports whether the command changes the view.
func (c Command) Mutates() bool {
	return !(c.Op == OpBranch && c.Arg == "")
}

// Exec runs the command against t and returns a short git-style message.
func (c Command) Exec(t Target) (string, error) {
	switch c.Op {
	case OpCommit:
		commit, err := t.Commit(history.CommitData{ID: c.Arg})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%s %s] committed", where(t), commit.ID), nil

	case OpBranch:
		if c.Arg == "" {
			return listBranches(t), nil
		}
		if err := t.Branch(c.Arg); err != nil {
			return "", err
		}
		return fmt.Sprintf("Created branch '%s'", c.Arg), nil

	case OpCheckout:
		if c.Create {
			if err := t.Branch(c.Arg); err != nil {
				return "", err
			}
		}
		if err := t.Checkout(c.Arg); err != nil {
			return "", err
		}
		if t.CurrentBranch() == "" {
			return fmt.Sprintf("HEAD is now at %s", c.Arg), nil
		}
		if c.Create {
			return fmt.Sprintf("Switched to a new branch '%s'", c.Arg), nil
		}
		return fmt.Sprintf("Switched to branch '%s'", t.CurrentBranch()), nil

	case OpReset:
		if err := t.Reset(c.Arg); err != nil {
			return "", err
		}
		return fmt.Sprintf("HEAD is now at %s", c.Arg), nil

	default:
		return "", errors.New(errors.ErrCodeInvalidCommand, "unknown command %q", c.Op)
	}
}

func where(t Target) string {
	if b := t.CurrentBranch(); b != "" {
		return b
	}
	return "detached HEAD"
}

func listBranches(t Target) string {
	var b strings.Builder
	for _, name := range t.Branches() {
		if name == history.HeadRef {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		marker := "  "
		if name == t.CurrentBranch() {
			marker = "* "
		}
		b.WriteString(marker + name)
	}
	return b.String()
}

// Run parses line and executes it against t.
func Run(t Target, line string) (string, error) {
	cmd, err := Parse(line)
	if err != nil {
		return "", err
	}
	return cmd.Exec(t)
}

// RunScript runs each line in order and stops at the first failure. Blank
// lines and lines starting with '#' are skipped. It returns the messages of
// the lines that ran.
func RunScript(t Target, lines []string) ([]string, error) {
	var out []string
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		msg, err := Run(t, line)
		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInvalidCommand
			}
			return out, errors.Wrap(code, err, "line %d: %s", i+1, line)
		}
		out = append(out, msg)
	}
	return out, nil
}
