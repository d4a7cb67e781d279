package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wafermask/pkg/core/clip"
	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/gds"
	"github.com/matzehuels/wafermask/pkg/render"
)

// inspectCommand creates the inspect command that summarizes a GDSII file.
func (c *CLI) inspectCommand() *cobra.Command {
	var coverage bool

	cmd := &cobra.Command{
		Use:   "inspect [file.gds]",
		Short: "Summarize the structures and layers of a GDSII file",
		Long: `Summarize the structures and layers of a GDSII file.

With --coverage the area covered by the union of each layer's boundaries
is computed as well. This can take a while for dense layers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(args[0], coverage)
		},
	}

	cmd.Flags().BoolVar(&coverage, "coverage", false, "compute the covered area per layer")

	return cmd
}

func (c *CLI) runInspect(path string, coverage bool) error {
	lib, err := gds.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(lib.Name))
	printKeyValue("File", path)
	printKeyValue("Unit", fmt.Sprintf("%g m", lib.Unit))
	printKeyValue("Precision", fmt.Sprintf("%g m", lib.Precision))
	if !lib.Modified.IsZero() {
		printKeyValue("Modified", lib.Modified.Format("2006-01-02 15:04:05"))
	}
	for _, s := range lib.Structures {
		printKeyValue("Structure", fmt.Sprintf("%s (%d boundaries)", s.Name, len(s.Boundaries)))
	}
	printNewline()

	prog := newProgress(c.Logger)
	headers := []string{"Layer", "Name", "Boundaries", "Vertices"}
	if coverage {
		headers = append(headers, "Area (µm²)")
	}
	fmt.Println(renderTable(headers, layerCells(lib, coverage), nil))
	if coverage {
		prog.done("coverage computed")
	}
	return nil
}

// layerStats aggregates the boundaries of one layer.
type layerStats struct {
	layer      int16
	boundaries int
	vertices   int
	polygons   []geometry.Polygon
}

// collectLayers groups every boundary of lib by layer in ascending order.
func collectLayers(lib *gds.Library) []*layerStats {
	byLayer := map[int16]*layerStats{}
	for _, s := range lib.Structures {
		for _, b := range s.Boundaries {
			st, ok := byLayer[b.Layer]
			if !ok {
				st = &layerStats{layer: b.Layer}
				byLayer[b.Layer] = st
			}
			st.boundaries++
			st.vertices += len(b.Points)
			st.polygons = append(st.polygons, b.Points)
		}
	}
	out := make([]*layerStats, 0, len(byLayer))
	for _, st := range byLayer {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b *layerStats) int { return int(a.layer) - int(b.layer) })
	return out
}

// layerName names layer l of lib. Pillar arrays use their own layer
// order; every other library is read as a wafer layout.
func layerName(lib *gds.Library, l geometry.Layer) string {
	if _, ok := lib.Structure(arrayCellName); ok {
		if name, ok := arrayLayerNames[l]; ok {
			return name
		}
		return "-"
	}
	if style, ok := render.LayerStyles[l]; ok {
		return style.LayerName
	}
	return "-"
}

// layerCells formats the layer statistics of lib as table cells.
func layerCells(lib *gds.Library, coverage bool) [][]string {
	layers := collectLayers(lib)
	rows := make([][]string, len(layers))
	for i, st := range layers {
		name := layerName(lib, geometry.Layer(st.layer))
		rows[i] = []string{
			strconv.Itoa(int(st.layer)),
			name,
			strconv.Itoa(st.boundaries),
			strconv.Itoa(st.vertices),
		}
		if coverage {
			rows[i] = append(rows[i], strconv.FormatFloat(clip.Coverage(st.polygons), 'f', 0, 64))
		}
	}
	return rows
}
