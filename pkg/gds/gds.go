package gds

import (
	"math"
	"time"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
)

// Version is the stream format version written in the HEADER record.
const Version = 600

// MaxVertices is the largest number of distinct vertices per boundary.
const MaxVertices = 8190

// DefaultLibraryName is used when a library has no name.
const DefaultLibraryName = "LIBRARY"

// Record types (record type byte << 8 | data type byte).
const (
	recHeader   uint16 = 0x0002
	recBgnLib   uint16 = 0x0102
	recLibName  uint16 = 0x0206
	recUnits    uint16 = 0x0305
	recEndLib   uint16 = 0x0400
	recBgnStr   uint16 = 0x0502
	recStrName  uint16 = 0x0606
	recEndStr   uint16 = 0x0700
	recBoundary uint16 = 0x0800
	recPath     uint16 = 0x0900
	recSRef     uint16 = 0x0A00
	recARef     uint16 = 0x0B00
	recText     uint16 = 0x0C00
	recLayer    uint16 = 0x0D02
	recDatatype uint16 = 0x0E02
	recXY       uint16 = 0x1003
	recEndEl    uint16 = 0x1100
	recNode     uint16 = 0x1500
	recBox      uint16 = 0x2D00
)

// Library is a GDSII library.
type Library struct {
	Name string

	// Unit is the size of one user unit in metres; Precision is the size
	// of one database unit in metres.
	Unit      float64
	Precision float64

	// Modified is stamped into BGNLIB and BGNSTR. The zero value means
	// the time of encoding.
	Modified time.Time

	Structures []Structure
}

// Structure is a named cell of boundaries.
type Structure struct {
	Name       string
	Boundaries []Boundary
}

// Boundary is a filled polygon on a layer. Points are in user units and
// must not repeat the first point at the end.
type Boundary struct {
	Layer    int16
	Datatype int16
	Points   geometry.Polygon
}

// Structure returns the structure with the given name.
func (l *Library) Structure(name string) (*Structure, bool) {
	for i := range l.Structures {
		if l.Structures[i].Name == name {
			return &l.Structures[i], true
		}
	}
	return nil, false
}

// LayerCounts returns the number of boundaries per layer across all
// structures.
func (l *Library) LayerCounts() map[int16]int {
	out := make(map[int16]int)
	for _, s := range l.Structures {
		for _, b := range s.Boundaries {
			out[b.Layer]++
		}
	}
	return out
}

// encodeReal converts v to the excess-64 base-16 8-byte real.
func encodeReal(v float64) uint64 {
	if v == 0 {
		return 0
	}
	var sign uint64
	if v < 0 {
		sign = 1 << 63
		v = -v
	}
	exp := 64
	for v >= 1 {
		v /= 16
		exp++
	}
	for v < 1.0/16 {
		v *= 16
		exp--
	}
	mant := uint64(math.Round(v * (1 << 56)))
	if mant >= 1<<56 {
		mant >>= 4
		exp++
	}
	return sign | uint64(exp&0x7f)<<56 | mant
}

// decodeReal converts an excess-64 base-16 8-byte real to float64.
func decodeReal(b uint64) float64 {
	exp := int((b>>56)&0x7f) - 64
	v := math.Ldexp(float64(b&(1<<56-1)), 4*exp-56)
	if b>>63 == 1 {
		v = -v
	}
	return v
}
