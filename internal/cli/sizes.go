package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wafermask/pkg/core/wafer"
)

// sizesCommand creates the sizes command that lists wafer size classes.
func (c *CLI) sizesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sizes",
		Short: "List wafer sizes and their flat dimensions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(renderTable(
				[]string{"Size", "Nominal", "Diameter", "Flat angle", "Flat length"},
				sizeCells(),
				func(i int) bool {
					_, ok := wafer.Sizes[i].Flat()
					return !ok
				},
			))
		},
	}
}

var nominalInches = map[wafer.SizeClass]string{
	wafer.Size2Inch: `2"`,
	wafer.Size4Inch: `4"`,
	wafer.Size6Inch: `6"`,
	wafer.Size8Inch: `8"`,
}

// sizeCells formats every declared size class as table cells. Sizes without
// flat constants are marked unsupported.
func sizeCells() [][]string {
	out := make([][]string, len(wafer.Sizes))
	for i, s := range wafer.Sizes {
		row := []string{strconv.Itoa(int(s)), nominalInches[s], s.String(), "unsupported", "-"}
		if flat, ok := s.Flat(); ok {
			row[3] = fmt.Sprintf("%g°", flat.Angle)
			row[4] = fmt.Sprintf("%g mm", flat.Fragment)
		}
		out[i] = row
	}
	return out
}
