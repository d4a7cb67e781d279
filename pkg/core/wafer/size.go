package wafer

import (
	"fmt"
	"sort"

	"github.com/matzehuels/wafermask/pkg/errors"
)

// MMInMicrons converts millimetres to working units.
const MMInMicrons = 1000

// GapBetweenSections is the clearance kept between adjacent sections, in
// working units. Each section gives up half of it on its right and bottom.
const GapBetweenSections = 1 * MMInMicrons

// SizeClass is a nominal wafer diameter in millimetres.
type SizeClass int

// Supported wafer diameters.
const (
	Size2Inch SizeClass = 51
	Size4Inch SizeClass = 100
	Size6Inch SizeClass = 150
	Size8Inch SizeClass = 200
)

// Sizes lists every declared size class in ascending order.
var Sizes = []SizeClass{Size2Inch, Size4Inch, Size6Inch, Size8Inch}

// FlatSpec describes the flat cut of a wafer size class.
type FlatSpec struct {
	// Angle is how far, in degrees, the outline extends below the x axis
	// on either side before the flat chord closes it.
	Angle float64 `json:"angle" bson:"angle"`

	// Fragment is the flat fragment length in millimetres.
	Fragment float64 `json:"fragment" bson:"fragment"`
}

// flats holds the physical constants known per size class. Size8Inch is
// declared but has no known values.
var flats = map[SizeClass]FlatSpec{
	Size2Inch: {Angle: 71.86, Fragment: 24.23},
	Size4Inch: {Angle: 71.03, Fragment: 47.28},
	Size6Inch: {Angle: 67.46, Fragment: 69.27},
}

// String returns the diameter with its unit, e.g. "100mm".
func (s SizeClass) String() string { return fmt.Sprintf("%dmm", int(s)) }

// Declared reports whether s is one of the enumerated size classes.
func (s SizeClass) Declared() bool {
	for _, d := range Sizes {
		if s == d {
			return true
		}
	}
	return false
}

// Flat returns the flat constants for s and whether they are known.
func (s SizeClass) Flat() (FlatSpec, bool) {
	f, ok := flats[s]
	return f, ok
}

// Supported returns the size classes that can be laid out.
func Supported() []SizeClass {
	out := make([]SizeClass, 0, len(flats))
	for s := range flats {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func checkSize(s SizeClass) (FlatSpec, error) {
	if !s.Declared() {
		return FlatSpec{}, errors.New(errors.ErrCodeInvalidConfiguration,
			"wafer size %d is not one of %v", int(s), Sizes)
	}
	f, ok := s.Flat()
	if !ok {
		return FlatSpec{}, errors.New(errors.ErrCodeInvalidConfiguration,
			"wafer size %s has no known flat angle or fragment", s)
	}
	return f, nil
}

// Unit is a length scale in metres.
type Unit float64

// Supported units.
const (
	Microns    Unit = 1e-6
	Nanometers Unit = 1e-9
)

// String returns the unit name.
func (u Unit) String() string {
	switch u {
	case Microns:
		return "um"
	case Nanometers:
		return "nm"
	default:
		return fmt.Sprintf("%gm", float64(u))
	}
}

// ParseUnit accepts "um", "micron(s)", "nm", "nanometer(s)" or a scale in
// metres such as "1e-6".
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "um", "micron", "microns", "µm":
		return Microns, nil
	case "nm", "nanometer", "nanometers":
		return Nanometers, nil
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err == nil {
		if u := Unit(v); u == Microns || u == Nanometers {
			return u, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidConfiguration, "unit %q must be um or nm", s)
}

// Units carries the scale factors handed to a Writer.
type Units struct {
	Unit      Unit `json:"unit" bson:"unit"`
	Precision Unit `json:"precision" bson:"precision"`
}

func checkUnits(unit, precision Unit) error {
	if unit != Microns && unit != Nanometers {
		return errors.New(errors.ErrCodeInvalidConfiguration, "unit %g must be %g or %g", float64(unit), float64(Microns), float64(Nanometers))
	}
	if precision != Microns && precision != Nanometers {
		return errors.New(errors.ErrCodeInvalidConfiguration, "precision %g must be %g or %g", float64(precision), float64(Microns), float64(Nanometers))
	}
	if precision > unit {
		return errors.New(errors.ErrCodeInvalidConfiguration, "precision %s must not exceed unit %s", precision, unit)
	}
	return nil
}
