package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/errors"
	"github.com/matzehuels/wafermask/pkg/job"
)

const defaultJobFile = "wafer.toml"

// initCommand creates the init command that writes a starter job file.
func (c *CLI) initCommand() *cobra.Command {
	var (
		force bool
		size  int
	)
	j := job.Default()

	cmd := &cobra.Command{
		Use:   "init [job.toml]",
		Short: "Write a starter job file",
		Long: `Write a starter job file.

The job describes the wafer size, margin, partition and the structures of
each section. Edit it by hand or with 'wafermask edit', then run
'wafermask generate'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultJobFile
			if len(args) == 1 {
				path = args[0]
			}
			j.Size = wafer.SizeClass(size)
			return c.runInit(path, j, force)
		},
	}

	cmd.Flags().StringVar(&j.Name, "name", j.Name, "output base name")
	cmd.Flags().IntVar(&size, "size", int(j.Size), "wafer diameter in mm: 51, 100, 150")
	cmd.Flags().Float64Var(&j.Margin, "margin", j.Margin, "edge margin in mm")
	cmd.Flags().IntVar(&j.Rows, "rows", j.Rows, "section rows")
	cmd.Flags().IntVar(&j.Cols, "cols", j.Cols, "section columns")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

// runInit validates j and writes it to path.
func (c *CLI) runInit(path string, j *job.Job, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrCodeInvalidArgument, "%s already exists (use --force to overwrite)", path)
		}
	}
	if err := j.Validate(); err != nil {
		return err
	}
	if err := job.Save(path, j); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Created job")
	printFile(path)
	printNewline()
	printNextStep("Configure sections", "wafermask edit "+path)
	return nil
}
