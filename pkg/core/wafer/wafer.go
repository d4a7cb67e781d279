package wafer

import (
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wafermask/pkg/core/clip"
	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/errors"
)

// Wafer is a wafer layout: outlines, partition, section setups and the
// cell of emitted shapes.
type Wafer struct {
	cfg       config
	unit      Unit
	precision Unit

	frame *frame

	rows, cols   int
	stepX, stepY float64

	setups map[int]Setup
	cell   *Cell
}

// frame holds everything derived from the size class and margin.
type frame struct {
	size     SizeClass
	flat     FlatSpec
	marginMM float64

	outline       geometry.Polygon
	marginOutline geometry.Polygon
	clipper       *clip.Clipper

	// drawing is the rectangle partitioned into sections.
	drawing geometry.Rect
}

func newFrame(size SizeClass, marginMM float64, maxPoints int) (*frame, error) {
	flat, err := checkSize(size)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(marginMM) || math.IsInf(marginMM, 0) || marginMM < 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "margin must be a non-negative number of mm, got %g", marginMM)
	}

	sizeUM := float64(size) * MMInMicrons
	marginUM := marginMM * MMInMicrons
	fragmentUM := flat.Fragment * MMInMicrons

	width := sizeUM - 2*marginUM
	height := (sizeUM/2 + fragmentUM) - 2*marginUM
	if width <= 0 || height <= 0 || sizeUM/2-marginUM <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration,
			"margin %gmm leaves no drawing area on a %s wafer", marginMM, size)
	}

	start, end := -flat.Angle, 180+flat.Angle
	outline, err := geometry.SampleArc(sizeUM/2, start, end, geometry.OutlinePoints)
	if err != nil {
		return nil, err
	}
	marginOutline, err := geometry.SampleArc(sizeUM/2-marginUM, start, end, geometry.OutlinePoints)
	if err != nil {
		return nil, err
	}

	x := -sizeUM/2 + marginUM
	y := sizeUM/2 - marginUM
	return &frame{
		size:          size,
		flat:          flat,
		marginMM:      marginMM,
		outline:       outline,
		marginOutline: marginOutline,
		clipper:       clip.New(marginOutline, clip.WithMaxPoints(maxPoints)),
		drawing: geometry.NewRect(
			geometry.Point{X: x, Y: y - height},
			geometry.Point{X: x + width, Y: y},
		),
	}, nil
}

// New creates a wafer layout of the given size class and margin (in mm).
// The drawing area starts as a single section.
//
// It fails with INVALID_CONFIGURATION when the size class is unknown or
// has no flat constants, when unit or precision is not Microns or
// Nanometers, when precision exceeds unit, or when the margin leaves no
// drawing area.
func New(size SizeClass, marginMM float64, unit, precision Unit, opts ...Option) (*Wafer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := checkUnits(unit, precision); err != nil {
		return nil, err
	}
	if err := errors.ValidateCellName(cfg.cellName); err != nil {
		return nil, err
	}
	f, err := newFrame(size, marginMM, cfg.maxPoints)
	if err != nil {
		return nil, err
	}

	w := &Wafer{
		cfg:       cfg,
		unit:      unit,
		precision: precision,
		frame:     f,
		rows:      1,
		cols:      1,
		stepX:     f.drawing.Width(),
		stepY:     f.drawing.Height(),
		setups:    make(map[int]Setup),
		cell:      NewCell(cfg.cellName),
	}
	w.cfg.logger.Debug("wafer created", "size", size, "margin_mm", marginMM, "unit", unit, "precision", precision)
	return w, nil
}

// Partition divides the drawing area into rows x cols sections. Step sizes
// are truncated to whole working units. Stored setups are kept by section
// number, even when they fall outside the new partition.
func (w *Wafer) Partition(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return errors.New(errors.ErrCodeInvalidArgument, "rows and columns must be positive integers, got %dx%d", rows, cols)
	}
	w.rows, w.cols = rows, cols
	w.stepX = math.Trunc(w.frame.drawing.Width() / float64(cols))
	w.stepY = math.Trunc(w.frame.drawing.Height() / float64(rows))
	w.cfg.logger.Debug("wafer partitioned", "rows", rows, "cols", cols, "step_x", w.stepX, "step_y", w.stepY)
	return nil
}

// ChangeWaferSize switches to another size class, rebuilds the outlines and
// drawing area, and re-applies the current partition. Shapes already in the
// cell are kept.
func (w *Wafer) ChangeWaferSize(size SizeClass) error {
	f, err := newFrame(size, w.frame.marginMM, w.cfg.maxPoints)
	if err != nil {
		return err
	}
	w.frame = f
	return w.Partition(w.rows, w.cols)
}

// ChangeMargin sets a new margin in mm, rebuilds the margin outline and
// drawing area, and re-applies the current partition. Shapes already in
// the cell are kept.
func (w *Wafer) ChangeMargin(marginMM float64) error {
	f, err := newFrame(w.frame.size, marginMM, w.cfg.maxPoints)
	if err != nil {
		return err
	}
	w.frame = f
	return w.Partition(w.rows, w.cols)
}

func (w *Wafer) checkSection(section int) error {
	if section < 1 || section > w.NumSections() {
		return errors.New(errors.ErrCodeInvalidArgument, "section %d must be between 1 and %d", section, w.NumSections())
	}
	return nil
}

// AddSetup stores or replaces the setup of a section. It does not generate
// any geometry.
func (w *Wafer) AddSetup(section int, s Setup) error {
	if err := w.checkSection(section); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	w.setups[section] = s
	return nil
}

// Setup returns the setup stored for a section, or a NOT_FOUND error.
func (w *Wafer) Setup(section int) (Setup, error) {
	s, ok := w.setups[section]
	if !ok {
		return Setup{}, errors.New(errors.ErrCodeNotFound, "no setup for section %d", section)
	}
	return s, nil
}

// SetupOrDefault returns the stored setup of a section or DefaultSetup.
func (w *Wafer) SetupOrDefault(section int) Setup {
	if s, err := w.Setup(section); err == nil {
		return s
	}
	return DefaultSetup
}

// Setups returns a copy of every stored setup keyed by section number,
// including orphaned ones.
func (w *Wafer) Setups() map[int]Setup {
	out := make(map[int]Setup, len(w.setups))
	for k, v := range w.setups {
		out[k] = v
	}
	return out
}

// Orphaned returns the stored section numbers that lie beyond the current
// partition, ascending.
func (w *Wafer) Orphaned() []int {
	var out []int
	for n := range w.setups {
		if n > w.NumSections() {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// PruneOrphaned deletes the setups returned by Orphaned and returns their
// section numbers.
func (w *Wafer) PruneOrphaned() []int {
	pruned := w.Orphaned()
	for _, n := range pruned {
		delete(w.setups, n)
	}
	return pruned
}

// SectionRect returns the rectangle of a section, already shrunk by half
// the inter-section gap on its right and bottom edges.
func (w *Wafer) SectionRect(section int) (geometry.Rect, error) {
	if err := w.checkSection(section); err != nil {
		return geometry.Rect{}, err
	}
	return w.sectionRect(section), nil
}

func (w *Wafer) sectionRect(section int) geometry.Rect {
	row := (section - 1) / w.cols
	col := (section - 1) % w.cols

	x := w.frame.drawing.Min.X + float64(col)*w.stepX
	y := w.frame.drawing.Max.Y - float64(row)*w.stepY
	width := math.Max(w.stepX-GapBetweenSections/2, 0)
	height := math.Max(w.stepY-GapBetweenSections/2, 0)

	return geometry.Rect{
		Min: geometry.Point{X: x, Y: y - height},
		Max: geometry.Point{X: x + width, Y: y},
	}
}

// ResetCell discards every shape emitted so far.
func (w *Wafer) ResetCell() {
	w.cell = NewCell(w.cfg.cellName)
}

// Cell returns the cell of emitted shapes.
func (w *Wafer) Cell() *Cell { return w.cell }

// Logger returns the wafer's logger.
func (w *Wafer) Logger() *log.Logger { return w.cfg.logger }

// Size returns the size class.
func (w *Wafer) Size() SizeClass { return w.frame.size }

// Margin returns the margin in mm.
func (w *Wafer) Margin() float64 { return w.frame.marginMM }

// Flat returns the flat constants of the current size class.
func (w *Wafer) Flat() FlatSpec { return w.frame.flat }

// Units returns the unit and precision handed to writers.
func (w *Wafer) Units() Units { return Units{Unit: w.unit, Precision: w.precision} }

// Rows returns the number of partition rows.
func (w *Wafer) Rows() int { return w.rows }

// Cols returns the number of partition columns.
func (w *Wafer) Cols() int { return w.cols }

// NumSections returns rows*cols.
func (w *Wafer) NumSections() int { return w.rows * w.cols }

// Step returns the section pitch along x and y in working units.
func (w *Wafer) Step() (x, y float64) { return w.stepX, w.stepY }

// DrawingArea returns the rectangle that is partitioned into sections.
func (w *Wafer) DrawingArea() geometry.Rect { return w.frame.drawing }

// Outline returns the wafer outline polygon.
func (w *Wafer) Outline() geometry.Polygon { return w.frame.outline }

// MarginOutline returns the margin outline polygon that bounds structures.
func (w *Wafer) MarginOutline() geometry.Polygon { return w.frame.marginOutline }
