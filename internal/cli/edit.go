package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wafermask/pkg/errors"
	"github.com/matzehuels/wafermask/pkg/job"
)

// editCommand creates the interactive section editor command.
func (c *CLI) editCommand() *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "edit [job.toml]",
		Short: "Edit section setups interactively",
		Long: `Edit section setups interactively.

Select a section with the arrow keys, choose a structure with space, type
the distance and radius and press enter to apply. Press w to save the job
file and quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultJobFile
			if len(args) == 1 {
				path = args[0]
			}
			return c.runEdit(path, create)
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "start from a default job when the file does not exist")

	return cmd
}

func (c *CLI) runEdit(path string, create bool) error {
	j, err := job.Load(path)
	if err != nil {
		if !create || !errors.Is(err, errors.ErrCodeFileNotFound) {
			return err
		}
		j = job.Default()
	}

	final, err := tea.NewProgram(NewSectionEditorModel(j, path)).Run()
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}

	m := final.(SectionEditorModel)
	switch {
	case m.Saved:
		printSuccess("Saved %d section setups", len(m.Job.Sections))
		printFile(path)
		printNewline()
		printNextStep("Generate", "wafermask generate "+path)
	case m.Dirty:
		printWarning("Discarded unsaved changes")
	}
	return nil
}
