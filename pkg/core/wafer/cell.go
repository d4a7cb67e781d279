package wafer

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
)

// DefaultCellName is the cell name used when none is configured.
const DefaultCellName = "WAFER"

// Shape is one emitted polygon.
type Shape struct {
	Points geometry.Polygon `json:"points" bson:"points"`
	Layer  geometry.Layer   `json:"layer" bson:"layer"`

	// Section is the section the shape was generated for, or 0 for the
	// wafer and margin outlines.
	Section int `json:"section,omitempty" bson:"section,omitempty"`
}

// Cell is the container of emitted shapes. Shapes are kept in insertion
// order and indexed by their bounds for window queries.
type Cell struct {
	name   string
	shapes []Shape
	tree   *rtree.Rtree
	bounds geometry.Rect
}

// bbox names the embedded bounds of an entry so that its Bounds method is
// promoted instead of shadowed by the field.
type bbox = geom.Bounds

// entry is an R-tree item; it exposes the bounds of the shape at index.
type entry struct {
	*bbox
	index int
}

var _ geom.Geom = (*entry)(nil)

// NewCell creates an empty cell.
func NewCell(name string) *Cell {
	if name == "" {
		name = DefaultCellName
	}
	return &Cell{name: name, tree: rtree.NewTree(25, 50)}
}

// Name returns the cell name.
func (c *Cell) Name() string { return c.name }

// Len returns the number of shapes in the cell.
func (c *Cell) Len() int { return len(c.shapes) }

// Shapes returns the shapes in insertion order. The slice must not be
// modified.
func (c *Cell) Shapes() []Shape { return c.shapes }

// Add appends shapes to the cell. Shapes with fewer than three points are
// ignored.
func (c *Cell) Add(shapes ...Shape) {
	for _, s := range shapes {
		if !s.Points.Valid() {
			continue
		}
		c.index(s)
		c.shapes = append(c.shapes, s)
	}
}

// index inserts s into the tree as the next shape.
func (c *Cell) index(s Shape) {
	b := s.Points.Bounds()
	if len(c.shapes) == 0 {
		c.bounds = b
	} else {
		c.bounds = union(c.bounds, b)
	}
	c.tree.Insert(&entry{
		bbox: &geom.Bounds{
			Min: geom.Point{X: b.Min.X, Y: b.Min.Y},
			Max: geom.Point{X: b.Max.X, Y: b.Max.Y},
		},
		index: len(c.shapes),
	})
}

// truncate drops every shape from position n on and rebuilds the index.
func (c *Cell) truncate(n int) {
	if n >= len(c.shapes) {
		return
	}
	kept := c.shapes[:n:n]
	c.shapes = nil
	c.bounds = geometry.Rect{}
	c.tree = rtree.NewTree(25, 50)
	for _, s := range kept {
		c.index(s)
		c.shapes = append(c.shapes, s)
	}
}

// Bounds returns the bounding box of every shape in the cell.
func (c *Cell) Bounds() geometry.Rect { return c.bounds }

// Query returns the shapes whose bounds overlap r, in insertion order.
func (c *Cell) Query(r geometry.Rect) []Shape {
	hits := c.tree.SearchIntersect(&geom.Bounds{
		Min: geom.Point{X: r.Min.X, Y: r.Min.Y},
		Max: geom.Point{X: r.Max.X, Y: r.Max.Y},
	})
	idx := make([]int, 0, len(hits))
	for _, h := range hits {
		idx = append(idx, h.(*entry).index)
	}
	sort.Ints(idx)

	out := make([]Shape, len(idx))
	for i, j := range idx {
		out[i] = c.shapes[j]
	}
	return out
}

// Layer returns the shapes on layer l.
func (c *Cell) Layer(l geometry.Layer) []Shape {
	var out []Shape
	for _, s := range c.shapes {
		if s.Layer == l {
			out = append(out, s)
		}
	}
	return out
}

// Section returns the shapes generated for section n.
func (c *Cell) Section(n int) []Shape {
	var out []Shape
	for _, s := range c.shapes {
		if s.Section == n {
			out = append(out, s)
		}
	}
	return out
}

// Sections returns the distinct non-zero section numbers present in the
// cell, ascending.
func (c *Cell) Sections() []int {
	seen := make(map[int]bool)
	var out []int
	for _, s := range c.shapes {
		if s.Section != 0 && !seen[s.Section] {
			seen[s.Section] = true
			out = append(out, s.Section)
		}
	}
	sort.Ints(out)
	return out
}

func union(a, b geometry.Rect) geometry.Rect {
	return geometry.NewRect(
		geometry.Point{X: min(a.Min.X, b.Min.X), Y: min(a.Min.Y, b.Min.Y)},
		geometry.Point{X: max(a.Max.X, b.Max.X), Y: max(a.Max.Y, b.Max.Y)},
	)
}
