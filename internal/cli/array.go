package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/core/pillar"
	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/gds"
)

// arrayCellName is the cell of a standalone pillar array.
const arrayCellName = "PILLARS"

// Array layers. Pillars come first, unlike the wafer layout.
const (
	arrayPillarLayer  geometry.Layer = 1
	arrayOutlineLayer geometry.Layer = 2
	arrayMarginLayer  geometry.Layer = 3
)

var arrayLayerNames = map[geometry.Layer]string{
	arrayPillarLayer:  "pillars",
	arrayOutlineLayer: "outline",
	arrayMarginLayer:  "margin",
}

// arrayOpts holds the command-line flags for the array command.
type arrayOpts struct {
	output    string
	distance  float64
	radius    float64
	overhang  float64
	rows      int
	cols      int
	size      int
	margin    float64
	unit      string
	precision string
}

// arrayCommand creates the array command that writes a centred pillar array.
func (c *CLI) arrayCommand() *cobra.Command {
	opts := arrayOpts{
		output:    "pillars.gds",
		distance:  2000,
		radius:    500,
		rows:      10,
		cols:      10,
		size:      int(wafer.Size4Inch),
		margin:    5,
		unit:      "um",
		precision: "nm",
	}

	cmd := &cobra.Command{
		Use:   "array",
		Short: "Write a centred pillar array with wafer outlines",
		Long: `Write a centred pillar array with wafer outlines.

The array is laid out row by row around the origin. Each pillar is drawn
with its radius grown by the overhang on layer 1; the wafer outline and
margin outline go to layers 2 and 3. Adjacent pillars must not overlap,
that is 2*(radius+overhang) may not exceed the distance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runArray(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output GDSII file")
	cmd.Flags().Float64Var(&opts.distance, "distance", opts.distance, "pillar pitch")
	cmd.Flags().Float64Var(&opts.radius, "radius", opts.radius, "pillar radius")
	cmd.Flags().Float64Var(&opts.overhang, "overhang", opts.overhang, "clearance added to the radius")
	cmd.Flags().IntVar(&opts.rows, "rows", opts.rows, "pillar rows")
	cmd.Flags().IntVar(&opts.cols, "cols", opts.cols, "pillar columns")
	cmd.Flags().IntVar(&opts.size, "size", opts.size, "wafer diameter in mm for the outlines")
	cmd.Flags().Float64Var(&opts.margin, "margin", opts.margin, "margin in mm for the margin outline")
	cmd.Flags().StringVar(&opts.unit, "unit", opts.unit, "user unit: um or nm")
	cmd.Flags().StringVar(&opts.precision, "precision", opts.precision, "database precision: um or nm")

	return cmd
}

func (c *CLI) runArray(ctx context.Context, opts arrayOpts) error {
	cell, units, err := buildArray(opts)
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger)
	if err := gds.FileWriter(opts.output, gds.WithLibraryName(arrayCellName)).WriteCell(ctx, cell, units); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	prog.done("array written")

	printSuccess("Generated %dx%d pillar array", opts.rows, opts.cols)
	printFile(opts.output)
	printStats(0, cell.Len(), 0, false)
	return nil
}

// buildArray lays out the pillar array and the wafer outlines in a
// PILLARS cell.
func buildArray(opts arrayOpts) (*wafer.Cell, wafer.Units, error) {
	unit, err := wafer.ParseUnit(opts.unit)
	if err != nil {
		return nil, wafer.Units{}, err
	}
	precision, err := wafer.ParseUnit(opts.precision)
	if err != nil {
		return nil, wafer.Units{}, err
	}
	w, err := wafer.New(wafer.SizeClass(opts.size), opts.margin, unit, precision, wafer.WithCellName(arrayCellName))
	if err != nil {
		return nil, wafer.Units{}, err
	}

	centres, err := pillar.Array(opts.distance, opts.radius, opts.overhang, opts.rows, opts.cols)
	if err != nil {
		return nil, wafer.Units{}, err
	}
	circle, err := geometry.NewTemplateCache().Circle(opts.radius+opts.overhang, geometry.DefaultArcPoints)
	if err != nil {
		return nil, wafer.Units{}, err
	}

	cell := w.Cell()
	for _, p := range centres {
		cell.Add(wafer.Shape{Points: circle.Translate(p.X, p.Y), Layer: arrayPillarLayer})
	}
	cell.Add(
		wafer.Shape{Points: w.Outline(), Layer: arrayOutlineLayer},
		wafer.Shape{Points: w.MarginOutline(), Layer: arrayMarginLayer},
	)
	return cell, w.Units(), nil
}
