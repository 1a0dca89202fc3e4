package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitdraw/pkg/config"
	"github.com/matzehuels/gitdraw/pkg/history"
)

func (c *CLI) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample view file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := writeSample(path, force); err != nil {
				return err
			}
			out := newUI(cmd.OutOrStdout())
			out.success("Wrote %s", path)
			out.nextStep("Render it", appName+" render "+path)
			out.nextStep("Edit it", appName+" play "+path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// sampleView is a small branching history with a script that continues it.
func sampleView() *config.File {
	f := config.Default()
	f.Name = "feature-branch"
	f.Commits = []history.CommitData{
		{ID: "a1b2c3"},
		{ID: "d4e5f6", Parent: "a1b2c3"},
		{ID: "0719ab", Parent: "d4e5f6", Tags: []string{"master"}},
	}
	f.Script = []string{
		"git checkout -b feature",
		"git commit",
		"git commit",
		"git checkout master",
	}
	f.Render.Formats = []string{"svg"}
	return f
}

func writeSample(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(path, flags, 0o644)
	if os.IsExist(err) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err != nil {
		return err
	}
	if err := sampleView().Encode(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
