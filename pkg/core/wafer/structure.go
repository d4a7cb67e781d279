package wafer

import (
	"strconv"
	"strings"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/core/grid"
	"github.com/matzehuels/wafermask/pkg/core/pillar"
	"github.com/matzehuels/wafermask/pkg/errors"
)

// Structure is the kind of micro-structure generated in a section.
type Structure int

// Structure kinds. The zero value is Pillars.
const (
	Pillars Structure = iota
	Grid
	LinesHorizontal
	LinesVertical
)

// Structures lists every structure kind in display order.
var Structures = []Structure{Pillars, Grid, LinesVertical, LinesHorizontal}

var structureNames = map[Structure]string{
	Pillars:         "Pillars",
	Grid:            "Grid",
	LinesHorizontal: "Lines H",
	LinesVertical:   "Lines V",
}

// String returns the display name of s.
func (s Structure) String() string {
	if n, ok := structureNames[s]; ok {
		return n
	}
	return "Structure(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s is a known structure kind.
func (s Structure) Valid() bool {
	_, ok := structureNames[s]
	return ok
}

// ParseStructure accepts display names ("Lines H") as well as lowercase
// and dashed forms ("lines-h", "pillars").
func ParseStructure(name string) (Structure, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for s, n := range structureNames {
		if strings.ToLower(n) == norm {
			return s, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidArgument, "unknown structure %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Structure) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "unknown structure %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Structure) UnmarshalText(text []byte) error {
	v, err := ParseStructure(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// generator produces the raw shapes of one structure kind inside the
// section rectangle r. For walls, radius is the bar thickness.
type generator func(distance, radius float64, r geometry.Rect) ([]geometry.Polygon, error)

// generators is the single dispatch table for structure kinds.
//
// Lines H emits the vertical bar list and Lines V the horizontal one.
// The labels are kept as layouts in the field depend on them.
var generators = map[Structure]generator{
	Pillars: func(d, rad float64, r geometry.Rect) ([]geometry.Polygon, error) {
		return pillar.GenerateRegion(d, rad, r.Min.X, r.Max.Y, r.Width(), r.Height())
	},
	Grid: func(d, rad float64, r geometry.Rect) ([]geometry.Polygon, error) {
		return rectPolygons(walls(d, rad, r).All()), nil
	},
	LinesHorizontal: func(d, rad float64, r geometry.Rect) ([]geometry.Polygon, error) {
		return rectPolygons(walls(d, rad, r).Vertical), nil
	},
	LinesVertical: func(d, rad float64, r geometry.Rect) ([]geometry.Polygon, error) {
		return rectPolygons(walls(d, rad, r).Horizontal), nil
	},
}

func walls(distance, thickness float64, r geometry.Rect) grid.Bars {
	return grid.GenerateRegion(distance, thickness, r.Min.X, r.Max.Y, r.Width(), r.Height())
}

func rectPolygons(rects []geometry.Rect) []geometry.Polygon {
	out := make([]geometry.Polygon, len(rects))
	for i, r := range rects {
		out[i] = r.Polygon()
	}
	return out
}
