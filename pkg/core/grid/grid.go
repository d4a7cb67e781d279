// Package grid lays out parallel wall bars inside a rectangle.
//
// A wall field is anchored at the top-left corner (x, y) of its rectangle
// and extends width to the right and height downwards. Bars repeat at a
// fixed centre-to-centre pitch and the lattice is centred so the leftover
// space is split evenly between opposite sides.
package grid

import (
	"math"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
)

// Bars holds the two orientations of a wall field.
//
// Vertical bars span the full rectangle height and repeat along x.
// Horizontal bars span the full rectangle width and repeat along y.
type Bars struct {
	Horizontal []geometry.Rect
	Vertical   []geometry.Rect
}

// All returns the horizontal bars followed by the vertical bars.
func (b Bars) All() []geometry.Rect {
	out := make([]geometry.Rect, 0, len(b.Horizontal)+len(b.Vertical))
	out = append(out, b.Horizontal...)
	return append(out, b.Vertical...)
}

// Len returns the total number of bars.
func (b Bars) Len() int { return len(b.Horizontal) + len(b.Vertical) }

// GenerateRegion computes the bars of a wall field with the given pitch and
// bar thickness. There are floor(width/pitch) vertical bars and
// floor(height/pitch) horizontal bars.
func GenerateRegion(pitch, thickness, x, y, width, height float64) Bars {
	var bars Bars
	if pitch <= 0 || thickness <= 0 {
		return bars
	}

	wallsX := int(math.Floor(width / pitch))
	wallsY := int(math.Floor(height / pitch))
	gapX := (width - float64(wallsX)*pitch) / 2
	gapY := (height - float64(wallsY)*pitch) / 2

	for col := 0; col < wallsX; col++ {
		left := x + gapX + float64(col)*pitch
		bars.Vertical = append(bars.Vertical, geometry.NewRect(
			geometry.Point{X: left, Y: y},
			geometry.Point{X: left + thickness, Y: y - height},
		))
	}
	for row := 0; row < wallsY; row++ {
		top := y - gapY - float64(row)*pitch
		bars.Horizontal = append(bars.Horizontal, geometry.NewRect(
			geometry.Point{X: x, Y: top},
			geometry.Point{X: x + width, Y: top - thickness},
		))
	}
	return bars
}
