package wafer

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
)

func TestGenerateAllEndToEnd(t *testing.T) {
	w := newTestWafer(t)
	if err := w.Partition(2, 2); err != nil {
		t.Fatal(err)
	}
	// Pitch scaled up from 20/5 to keep the pillar count small.
	if err := w.AddSetup(1, Setup{Distance: 2000, Radius: 500, Structure: Pillars}); err != nil {
		t.Fatal(err)
	}

	var calls int
	var gotUnits Units
	var sections []int
	writer := WriterFunc(func(_ context.Context, c *Cell, u Units) error {
		calls++
		gotUnits = u
		sections = c.Sections()
		return nil
	})

	report, err := w.GenerateAll(context.Background(), writer)
	if err != nil {
		t.Fatalf("GenerateAll() error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("writer called %d times, want 1", calls)
	}
	if gotUnits != (Units{Unit: Microns, Precision: Nanometers}) {
		t.Errorf("writer units = %+v", gotUnits)
	}
	if len(sections) != 1 || sections[0] != 1 {
		t.Errorf("written sections = %v, want [1]", sections)
	}
	if len(report.Sections) != 1 {
		t.Fatalf("report has %d sections, want 1", len(report.Sections))
	}

	rect, _ := w.SectionRect(1)
	structures := w.Cell().Layer(geometry.LayerStructures)
	if len(structures) == 0 {
		t.Fatal("no structures generated")
	}
	const eps = 1e-6
	for _, s := range structures {
		for _, p := range s.Points {
			if p.X < rect.Min.X-eps || p.X > rect.Max.X+eps || p.Y < rect.Min.Y-eps || p.Y > rect.Max.Y+eps {
				t.Fatalf("point %v outside section rectangle %+v", p, rect)
			}
			if d := p.Dist(geometry.Point{}); d > 45000+eps {
				t.Fatalf("point %v outside margin (distance %v)", p, d)
			}
		}
	}
	if report.Sections[0].Shapes > report.Sections[0].Generated {
		t.Errorf("kept %d shapes from %d generated", report.Sections[0].Shapes, report.Sections[0].Generated)
	}

	if n := len(w.Cell().Layer(geometry.LayerWafer)); n != 1 {
		t.Errorf("wafer outlines = %d, want 1", n)
	}
	if n := len(w.Cell().Layer(geometry.LayerMargin)); n != 1 {
		t.Errorf("margin outlines = %d, want 1", n)
	}
}

func TestGenerateAllAccumulates(t *testing.T) {
	w := newTestWafer(t)
	if err := w.AddSetup(1, Setup{Distance: 10000, Radius: 1000, Structure: Grid}); err != nil {
		t.Fatal(err)
	}
	noop := WriterFunc(func(context.Context, *Cell, Units) error { return nil })

	first, err := w.GenerateAll(context.Background(), noop)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.GenerateAll(context.Background(), noop); err != nil {
		t.Fatal(err)
	}
	if w.Cell().Len() != 2*first.Shapes {
		t.Errorf("cell has %d shapes after two runs, want %d", w.Cell().Len(), 2*first.Shapes)
	}
}

func TestGenerateAllWriterFailure(t *testing.T) {
	w := newTestWafer(t)
	if err := w.AddSetup(1, Setup{Distance: 10000, Radius: 1000, Structure: Grid}); err != nil {
		t.Fatal(err)
	}
	noop := WriterFunc(func(context.Context, *Cell, Units) error { return nil })
	if _, err := w.GenerateAll(context.Background(), noop); err != nil {
		t.Fatal(err)
	}
	before := w.Cell().Len()

	var observed int
	w.cfg.observer = func(SectionResult) { observed++ }
	errDiskFull := stderrors.New("disk full")
	failing := WriterFunc(func(context.Context, *Cell, Units) error { return errDiskFull })
	if _, err := w.GenerateAll(context.Background(), failing); !stderrors.Is(err, errDiskFull) {
		t.Fatalf("GenerateAll() error = %v, want %v", err, errDiskFull)
	}
	if got := w.Cell().Len(); got != before {
		t.Errorf("cell has %d shapes after failed write, want %d", got, before)
	}
	if observed != 0 {
		t.Errorf("observer called %d times for a failed write", observed)
	}

	if _, err := w.GenerateAll(context.Background(), noop); err != nil {
		t.Fatal(err)
	}
	if got := w.Cell().Len(); got != 2*before {
		t.Errorf("cell has %d shapes after retry, want %d", got, 2*before)
	}
}

func TestGenerateAllCanceled(t *testing.T) {
	w := newTestWafer(t)
	if err := w.AddSetup(1, Setup{Distance: 10000, Radius: 1000, Structure: Grid}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := w.GenerateAll(ctx, WriterFunc(func(context.Context, *Cell, Units) error {
		called = true
		return nil
	}))
	if err == nil {
		t.Fatal("GenerateAll() succeeded on a canceled context")
	}
	if called || w.Cell().Len() != 0 {
		t.Errorf("canceled run wrote=%v, cell has %d shapes", called, w.Cell().Len())
	}
}

func TestGenerateAllNilWriter(t *testing.T) {
	w := newTestWafer(t)
	if _, err := w.GenerateAll(context.Background(), nil); err == nil {
		t.Error("GenerateAll(nil) succeeded")
	}
}

func TestGenerateAllWorkersDeterministic(t *testing.T) {
	build := func(workers int) []Shape {
		w := newTestWafer(t, WithWorkers(workers))
		if err := w.Partition(2, 2); err != nil {
			t.Fatal(err)
		}
		setups := map[int]Setup{
			1: {Distance: 4000, Radius: 1000, Structure: Pillars},
			2: {Distance: 5000, Radius: 500, Structure: Grid},
			3: {Distance: 5000, Radius: 500, Structure: LinesHorizontal},
			4: {Distance: 5000, Radius: 500, Structure: LinesVertical},
		}
		for n, s := range setups {
			if err := w.AddSetup(n, s); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := w.GenerateAll(context.Background(), WriterFunc(func(context.Context, *Cell, Units) error { return nil })); err != nil {
			t.Fatal(err)
		}
		return w.Cell().Shapes()
	}

	seq, par := build(1), build(4)
	if len(seq) != len(par) {
		t.Fatalf("sequential %d shapes, parallel %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i].Section != par[i].Section || len(seq[i].Points) != len(par[i].Points) {
			t.Fatalf("shape %d differs: section %d/%d", i, seq[i].Section, par[i].Section)
		}
	}
}

func TestObserver(t *testing.T) {
	var seen []int
	w := newTestWafer(t, WithObserver(func(r SectionResult) { seen = append(seen, r.Section) }))
	if err := w.Partition(1, 2); err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{2, 1} {
		if err := w.AddSetup(n, Setup{Distance: 10000, Radius: 1000, Structure: Grid}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := w.GenerateAll(context.Background(), WriterFunc(func(context.Context, *Cell, Units) error { return nil })); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("observer saw %v, want [1 2]", seen)
	}
}
