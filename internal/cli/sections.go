package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wafermask/pkg/job"
	"github.com/matzehuels/wafermask/pkg/pipeline"
)

// sectionsCommand creates the sections command that lists a job's partition.
func (c *CLI) sectionsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sections [job.toml]",
		Short: "List the sections of a job with their setups",
		Long: `List the sections of a job with their setups.

Sections are numbered row by row from the top-left corner of the drawing
area. Sections without a setup are shown dimmed with the default values.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultJobFile
			if len(args) == 1 {
				path = args[0]
			}
			return c.runSections(path, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the table as JSON")

	return cmd
}

func (c *CLI) runSections(path string, asJSON bool) error {
	j, err := job.Load(path)
	if err != nil {
		return err
	}
	rows, err := pipeline.SectionTable(j)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Println(StyleTitle.Render(fmt.Sprintf("%s · %s · %dx%d", j.Name, j.Size, j.Rows, j.Cols)))
	fmt.Println(renderTable(
		[]string{"#", "Row", "Col", "Structure", "Distance", "Radius", "Origin (µm)", "Size (µm)"},
		sectionCells(rows),
		func(i int) bool { return !rows[i].Configured },
	))
	return nil
}

// sectionCells formats section rows as table cells.
func sectionCells(rows []pipeline.SectionRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			strconv.Itoa(r.Number),
			strconv.Itoa(r.Row + 1),
			strconv.Itoa(r.Col + 1),
			r.Setup.Structure.String(),
			formatMicrons(r.Setup.Distance),
			formatMicrons(r.Setup.Radius),
			fmt.Sprintf("%s, %s", formatMicrons(r.Rect.Min.X), formatMicrons(r.Rect.Min.Y)),
			fmt.Sprintf("%s x %s", formatMicrons(r.Rect.Width()), formatMicrons(r.Rect.Height())),
		}
	}
	return out
}

// formatMicrons formats a length without trailing zeros.
func formatMicrons(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
