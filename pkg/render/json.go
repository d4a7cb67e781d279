package render

import (
	"encoding/json"
	"strconv"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/core/wafer"
)

type jsonOutput struct {
	Cell      string         `json:"cell"`
	Unit      float64        `json:"unit"`
	Precision float64        `json:"precision"`
	Bounds    [4]float64     `json:"bounds"`
	Layers    map[string]int `json:"layers"`
	Sections  []int          `json:"sections,omitempty"`
	Shapes    []jsonShape    `json:"shapes"`
}

type jsonShape struct {
	Layer   int          `json:"layer"`
	Section int          `json:"section,omitempty"`
	Points  [][2]float64 `json:"points"`
}

// RenderJSON exports every shape of the cell with its layer and section.
// Bounds are [minX, minY, maxX, maxY] in user units.
func RenderJSON(cell *wafer.Cell, units wafer.Units) ([]byte, error) {
	b := cell.Bounds()
	out := jsonOutput{
		Cell:      cell.Name(),
		Unit:      float64(units.Unit),
		Precision: float64(units.Precision),
		Bounds:    [4]float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y},
		Layers:    layerCounts(cell),
		Sections:  cell.Sections(),
		Shapes:    make([]jsonShape, 0, cell.Len()),
	}
	for _, s := range cell.Shapes() {
		pts := make([][2]float64, len(s.Points))
		for i, p := range s.Points {
			pts[i] = [2]float64{p.X, p.Y}
		}
		out.Shapes = append(out.Shapes, jsonShape{Layer: int(s.Layer), Section: s.Section, Points: pts})
	}
	return json.MarshalIndent(out, "", "  ")
}

func layerCounts(cell *wafer.Cell) map[string]int {
	counts := make(map[string]int)
	for _, s := range cell.Shapes() {
		counts[layerName(s.Layer)]++
	}
	return counts
}

func layerName(l geometry.Layer) string {
	if st, ok := LayerStyles[l]; ok && st.LayerName != "" {
		return st.LayerName
	}
	return "layer" + strconv.Itoa(int(l))
}
