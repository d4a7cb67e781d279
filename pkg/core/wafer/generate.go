package wafer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/errors"
)

// Writer serializes a finished cell.
type Writer interface {
	WriteCell(ctx context.Context, cell *Cell, units Units) error
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(ctx context.Context, cell *Cell, units Units) error

// WriteCell calls f.
func (f WriterFunc) WriteCell(ctx context.Context, cell *Cell, units Units) error {
	return f(ctx, cell, units)
}

// SectionResult describes the structures committed for one section.
type SectionResult struct {
	Section int           `json:"section"`
	Setup   Setup         `json:"setup"`
	Rect    geometry.Rect `json:"rect"`

	// Generated counts raw shapes before clipping; Shapes counts the
	// clipped shapes added to the cell.
	Generated int `json:"generated"`
	Shapes    int `json:"shapes"`

	Duration time.Duration `json:"duration"`
}

// Report summarizes a GenerateAll call.
type Report struct {
	Sections []SectionResult `json:"sections"`

	// Orphaned lists stored setups skipped because their section number
	// exceeds the current partition.
	Orphaned []int `json:"orphaned,omitempty"`

	// Shapes counts every shape added to the cell, outlines included.
	Shapes   int           `json:"shapes"`
	Duration time.Duration `json:"duration"`
}

type sectionOutput struct {
	result SectionResult
	shapes []Shape
}

// buildSection generates and clips the structures of one section without
// touching the wafer state. It is safe to call concurrently.
func (w *Wafer) buildSection(section int, s Setup) (sectionOutput, error) {
	start := time.Now()
	gen, ok := generators[s.Structure]
	if !ok {
		return sectionOutput{}, errors.New(errors.ErrCodeInvalidArgument, "unknown structure %d", int(s.Structure))
	}

	rect := w.sectionRect(section)
	raw, err := gen(s.Distance, s.Radius, rect)
	if err != nil {
		return sectionOutput{}, err
	}
	clipped := w.frame.clipper.Clip(raw)

	shapes := make([]Shape, len(clipped))
	for i, p := range clipped {
		shapes[i] = Shape{Points: p, Layer: geometry.LayerStructures, Section: section}
	}
	return sectionOutput{
		result: SectionResult{
			Section:   section,
			Setup:     s,
			Rect:      rect,
			Generated: len(raw),
			Shapes:    len(shapes),
			Duration:  time.Since(start),
		},
		shapes: shapes,
	}, nil
}

func (w *Wafer) commit(out sectionOutput) {
	w.cell.Add(out.shapes...)
	w.notify(out)
}

// notify logs a committed section and reports it to the observer.
func (w *Wafer) notify(out sectionOutput) {
	w.cfg.logger.Debug("section generated",
		"section", out.result.Section,
		"structure", out.result.Setup.Structure,
		"generated", out.result.Generated,
		"kept", out.result.Shapes,
		"duration", out.result.Duration)
	if w.cfg.observer != nil {
		w.cfg.observer(out.result)
	}
}

// GenerateSectionStructures generates the structures of one section,
// clips them to the margin outline and adds them to the cell. The setup is
// stored for the section as well. Nothing is changed when it fails.
func (w *Wafer) GenerateSectionStructures(section int, s Setup) (SectionResult, error) {
	if err := w.checkSection(section); err != nil {
		return SectionResult{}, err
	}
	if err := s.Validate(); err != nil {
		return SectionResult{}, err
	}
	out, err := w.buildSection(section, s)
	if err != nil {
		return SectionResult{}, err
	}
	w.setups[section] = s
	w.commit(out)
	return out.result, nil
}

// outlineShapes returns the wafer and margin outlines.
func (w *Wafer) outlineShapes() []Shape {
	return []Shape{
		{Points: w.frame.outline, Layer: geometry.LayerWafer},
		{Points: w.frame.marginOutline, Layer: geometry.LayerMargin},
	}
}

// GenerateAll adds the wafer and margin outlines to the cell, generates
// every stored setup that lies within the current partition and calls
// wr exactly once with the cell.
//
// Sections are built concurrently (see WithWorkers). If any section fails
// or ctx is canceled, the cell is left untouched and wr is not called. If
// wr fails, the shapes added by this call are removed again.
// Setups beyond the current partition are skipped and reported in
// Report.Orphaned.
func (w *Wafer) GenerateAll(ctx context.Context, wr Writer) (Report, error) {
	if wr == nil {
		return Report{}, errors.New(errors.ErrCodeInvalidArgument, "writer is nil")
	}
	start := time.Now()

	var active []int
	for n := range w.setups {
		if n <= w.NumSections() {
			active = append(active, n)
		}
	}
	sort.Ints(active)
	report := Report{Orphaned: w.Orphaned()}
	for _, n := range report.Orphaned {
		w.cfg.logger.Warn("skipping setup outside partition", "section", n, "sections", w.NumSections())
	}

	outputs := make([]sectionOutput, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.workers)
	for i, n := range active {
		setup := w.setups[n]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := w.buildSection(n, setup)
			if err != nil {
				return fmt.Errorf("section %d: %w", n, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	mark := w.cell.Len()
	outlines := w.outlineShapes()
	w.cell.Add(outlines...)
	report.Shapes = len(outlines)
	for _, out := range outputs {
		w.cell.Add(out.shapes...)
		report.Sections = append(report.Sections, out.result)
		report.Shapes += out.result.Shapes
	}

	if err := wr.WriteCell(ctx, w.cell, w.Units()); err != nil {
		w.cell.truncate(mark)
		return Report{}, fmt.Errorf("write cell %s: %w", w.cell.Name(), err)
	}
	for _, out := range outputs {
		w.notify(out)
	}
	report.Duration = time.Since(start)
	w.cfg.logger.Debug("layout written",
		"cell", w.cell.Name(),
		"sections", len(report.Sections),
		"shapes", w.cell.Len(),
		"duration", report.Duration)
	return report, nil
}
