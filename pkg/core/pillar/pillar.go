// Package pillar tiles circular pillars on a square lattice.
//
// A pillar field fills a rectangle anchored at its top-left corner (x, y)
// and extending width to the right and height downwards. The lattice is
// centred inside the rectangle so that the leftover space is split evenly
// between opposite sides.
package pillar

import (
	"math"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/errors"
)

// Positions returns the centres of every pillar of the given radius that
// fits a square lattice of the given pitch inside the rectangle.
//
// Points are emitted column by column (left to right) and, within a column,
// from the top row downwards. The pitch is used as-is; callers validate
// that pillars do not overlap (see ValidateSpacing).
func Positions(pitch, radius, x, y, width, height float64) []geometry.Point {
	if pitch <= 0 {
		return nil
	}
	cols := int(math.Floor(width / pitch))
	rows := int(math.Floor(height / pitch))
	if cols < 1 || rows < 1 {
		return nil
	}

	gapX := (width-float64(cols)*pitch)/2 + radius
	gapY := (height-float64(rows)*pitch)/2 + radius

	points := make([]geometry.Point, 0, cols*rows)
	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			points = append(points, geometry.Point{
				X: x + gapX + float64(col)*pitch,
				Y: y - gapY - float64(row)*pitch,
			})
		}
	}
	return points
}

// GenerateRegion returns one circle polygon per position computed by
// Positions. The circle is sampled once and translated to each centre.
func GenerateRegion(pitch, radius, x, y, width, height float64) ([]geometry.Polygon, error) {
	points := Positions(pitch, radius, x, y, width, height)
	if len(points) == 0 {
		return nil, nil
	}

	tmpl, err := geometry.Templates.Circle(radius, geometry.PillarPoints)
	if err != nil {
		return nil, err
	}

	pillars := make([]geometry.Polygon, len(points))
	for i, p := range points {
		pillars[i] = tmpl.Translate(p.X, p.Y)
	}
	return pillars, nil
}

// ValidateSpacing checks that adjacent pillars of the given radius plus
// overhang clearance do not overlap at the given pitch.
func ValidateSpacing(pitch, radius, overhang float64) error {
	if pitch <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "pillar distance must be positive, got %g", pitch)
	}
	if radius <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "pillar radius must be positive, got %g", radius)
	}
	if overhang < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "pillar overhang cannot be negative, got %g", overhang)
	}
	if 2*(radius+overhang) > pitch {
		return errors.New(errors.ErrCodeInvalidArgument,
			"adjacent pillars overlap: 2*(radius %g + overhang %g) exceeds distance %g", radius, overhang, pitch)
	}
	return nil
}

// Array returns the centres of a rows x cols pillar array around the origin.
// The array starts at (cols+1)/2 and (rows+1)/2 pitches (integer division)
// to the left of and below the origin, and advances row by row.
func Array(pitch, radius, overhang float64, rows, cols int) ([]geometry.Point, error) {
	if err := ValidateSpacing(pitch, radius, overhang); err != nil {
		return nil, err
	}
	if rows < 1 || cols < 1 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "array needs at least one row and column, got %dx%d", rows, cols)
	}

	left := -float64((cols+1)/2) * pitch
	bottom := -float64((rows+1)/2) * pitch

	points := make([]geometry.Point, 0, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			points = append(points, geometry.Point{
				X: left + float64(col)*pitch,
				Y: bottom + float64(row)*pitch,
			})
		}
	}
	return points, nil
}
