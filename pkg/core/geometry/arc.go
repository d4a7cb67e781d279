package geometry

import (
	"math"
	"sync"

	"github.com/matzehuels/wafermask/pkg/errors"
)

// Point counts used by the layout engine.
const (
	// DefaultArcPoints is the sampling density for general arcs.
	DefaultArcPoints = 199

	// OutlinePoints is the sampling density of wafer and margin outlines.
	OutlinePoints = 300

	// PillarPoints is the sampling density of a single pillar. Pillars are
	// replicated many times, so fidelity is traded for output size.
	PillarPoints = 100
)

// SampleArc returns n points on a circle of the given radius centred on the
// origin, at angles spaced linearly from startDeg to endDeg inclusive.
func SampleArc(radius, startDeg, endDeg float64, n int) (Polygon, error) {
	if n < 2 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "arc needs at least 2 points, got %d", n)
	}
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "arc radius must be positive, got %g", radius)
	}

	start := startDeg * math.Pi / 180
	step := (endDeg - startDeg) * math.Pi / 180 / float64(n-1)

	pts := make(Polygon, n)
	for i := range pts {
		theta := start + float64(i)*step
		if i == n-1 {
			theta = endDeg * math.Pi / 180
		}
		pts[i] = Point{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
	}
	return pts, nil
}

// Templates is the process-wide circle template cache.
var Templates = NewTemplateCache()

type templateKey struct {
	radius float64
	n      int
}

// TemplateCache memoizes full-circle polygons by radius and point count.
// It is safe for concurrent use. Returned templates are shared and must
// not be modified; use Polygon.Translate to place copies.
type TemplateCache struct {
	mu        sync.Mutex
	templates map[templateKey]Polygon
}

// NewTemplateCache creates an empty template cache.
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{templates: make(map[templateKey]Polygon)}
}

// Circle returns a circle of the given radius centred on the origin,
// sampled with n points over 0-360 degrees. The sample at 360 degrees
// repeats the first one and is dropped, so the ring has n-1 vertices.
func (c *TemplateCache) Circle(radius float64, n int) (Polygon, error) {
	if n < 4 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "circle needs at least 4 samples, got %d", n)
	}
	key := templateKey{radius: radius, n: n}

	c.mu.Lock()
	defer c.mu.Unlock()
	if tmpl, ok := c.templates[key]; ok {
		return tmpl, nil
	}

	pts, err := SampleArc(radius, 0, 360, n)
	if err != nil {
		return nil, err
	}
	tmpl := pts[:n-1:n-1]
	c.templates[key] = tmpl
	return tmpl, nil
}

// Len returns the number of cached templates.
func (c *TemplateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.templates)
}
