// Package clip restricts generated structures to a boundary polygon.
//
// Boolean operations are delegated to github.com/ctessum/geom. Each input
// shape is intersected with the boundary on its own, which yields the same
// region as intersecting their union but never produces rings with holes.
package clip

import (
	"github.com/ctessum/geom"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
)

// DefaultMaxPoints is the default soft cap on vertices per output ring.
const DefaultMaxPoints = 3000

// maxFractureDepth bounds the recursive bisection of oversized rings.
const maxFractureDepth = 16

// Option configures a Clipper.
type Option func(*Clipper)

// WithMaxPoints sets the soft vertex cap for output rings. Rings above the
// cap are fractured into smaller pieces. Zero disables fracturing.
func WithMaxPoints(n int) Option {
	return func(c *Clipper) {
		if n >= 0 {
			c.maxPoints = n
		}
	}
}

// Clipper intersects shapes with a fixed boundary polygon.
// A Clipper is immutable after New and safe for concurrent use.
type Clipper struct {
	boundary  geom.Polygon
	bounds    geometry.Rect
	ring      geometry.Polygon
	convex    bool
	orient    float64
	maxPoints int
}

// New prepares a clipper for the given boundary.
func New(boundary geometry.Polygon, opts ...Option) *Clipper {
	c := &Clipper{
		boundary:  toGeom(boundary),
		bounds:    boundary.Bounds(),
		ring:      boundary,
		maxPoints: DefaultMaxPoints,
	}
	c.convex, c.orient = convexity(boundary)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxPoints returns the configured soft vertex cap.
func (c *Clipper) MaxPoints() int { return c.maxPoints }

// Clip returns the parts of shapes that lie inside the boundary.
// Output rings with fewer than three points are dropped.
func (c *Clipper) Clip(shapes []geometry.Polygon) []geometry.Polygon {
	out := make([]geometry.Polygon, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, c.clipOne(s)...)
	}
	return out
}

// ClipRects is Clip for axis-aligned rectangles.
func (c *Clipper) ClipRects(rects []geometry.Rect) []geometry.Polygon {
	shapes := make([]geometry.Polygon, len(rects))
	for i, r := range rects {
		shapes[i] = r.Polygon()
	}
	return c.Clip(shapes)
}

func (c *Clipper) clipOne(s geometry.Polygon) []geometry.Polygon {
	if !s.Valid() {
		return nil
	}
	if !c.bounds.Overlaps(s.Bounds()) {
		return nil
	}
	if c.convex && c.containsAll(s) {
		return c.fracture(s, 0)
	}

	isect := toGeom(s).Intersection(c.boundary)
	var out []geometry.Polygon
	for _, ring := range fromGeom(isect) {
		out = append(out, c.fracture(ring, 0)...)
	}
	return out
}

// containsAll reports whether every vertex of s lies inside the convex
// boundary or on its edge.
func (c *Clipper) containsAll(s geometry.Polygon) bool {
	n := len(c.ring)
	for _, p := range s {
		for i := range c.ring {
			a, b := c.ring[i], c.ring[(i+1)%n]
			if cross(a, b, p)*c.orient < 0 {
				return false
			}
		}
	}
	return true
}

// fracture splits rings above the vertex cap by bisecting their bounds
// along the longer axis.
func (c *Clipper) fracture(ring geometry.Polygon, depth int) []geometry.Polygon {
	if c.maxPoints == 0 || len(ring) <= c.maxPoints || depth >= maxFractureDepth {
		return []geometry.Polygon{ring}
	}

	b := ring.Bounds()
	lo, hi := b, b
	if b.Width() >= b.Height() {
		mid := (b.Min.X + b.Max.X) / 2
		lo.Max.X, hi.Min.X = mid, mid
	} else {
		mid := (b.Min.Y + b.Max.Y) / 2
		lo.Max.Y, hi.Min.Y = mid, mid
	}

	g := toGeom(ring)
	var out []geometry.Polygon
	for _, half := range []geometry.Rect{lo, hi} {
		for _, piece := range fromGeom(g.Intersection(toBounds(half))) {
			out = append(out, c.fracture(piece, depth+1)...)
		}
	}
	return out
}

// Union merges shapes into their combined region. Rings of the result may
// describe holes when the shapes enclose empty space.
func Union(shapes []geometry.Polygon) []geometry.Polygon {
	acc := union(shapes)
	if acc == nil {
		return nil
	}
	return fromGeom(acc)
}

// Coverage returns the area covered by the union of shapes.
func Coverage(shapes []geometry.Polygon) float64 {
	acc := union(shapes)
	if acc == nil {
		return 0
	}
	return acc.Area()
}

func union(shapes []geometry.Polygon) geom.Polygonal {
	var acc geom.Polygonal
	for _, s := range shapes {
		if !s.Valid() {
			continue
		}
		if acc == nil {
			acc = toGeom(s)
			continue
		}
		acc = acc.Union(toGeom(s))
	}
	return acc
}

func toGeom(p geometry.Polygon) geom.Polygon {
	ring := make([]geom.Point, len(p))
	for i, pt := range p {
		ring[i] = geom.Point{X: pt.X, Y: pt.Y}
	}
	return geom.Polygon{ring}
}

func toBounds(r geometry.Rect) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: r.Min.X, Y: r.Min.Y},
		Max: geom.Point{X: r.Max.X, Y: r.Max.Y},
	}
}

func fromGeom(g geom.Polygonal) []geometry.Polygon {
	var out []geometry.Polygon
	for _, ring := range rings(g) {
		n := len(ring)
		if n > 1 && ring[0] == ring[n-1] {
			n--
		}
		if n < 3 {
			continue
		}
		poly := make(geometry.Polygon, n)
		for i := 0; i < n; i++ {
			poly[i] = geometry.Point{X: ring[i].X, Y: ring[i].Y}
		}
		out = append(out, poly)
	}
	return out
}

// rings flattens the polygons of g into their rings.
func rings(g geom.Polygonal) []geom.Path {
	var out []geom.Path
	for _, p := range g.Polygons() {
		out = append(out, p...)
	}
	return out
}

func cross(a, b, p geometry.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// convexity reports whether p is convex and returns the sign of its
// winding (+1 counter-clockwise, -1 clockwise).
func convexity(p geometry.Polygon) (bool, float64) {
	n := len(p)
	if n < 3 {
		return false, 0
	}
	var sign float64
	for i := range p {
		z := cross(p[i], p[(i+1)%n], p[(i+2)%n])
		switch {
		case z > 0 && sign < 0, z < 0 && sign > 0:
			return false, 0
		case z > 0:
			sign = 1
		case z < 0:
			sign = -1
		}
	}
	return sign != 0, sign
}
