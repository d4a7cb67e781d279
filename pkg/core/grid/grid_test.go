package grid

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestGenerateRegionCounts(t *testing.T) {
	tests := []struct {
		name                            string
		pitch, thickness, width, height float64
		wantV, wantH                    int
	}{
		{"exact fit", 10, 2, 100, 50, 10, 5},
		{"leftover", 10, 2, 105, 59, 10, 5},
		{"narrow", 10, 2, 9, 50, 0, 5},
		{"flat", 10, 2, 100, 9, 10, 0},
		{"zero pitch", 0, 2, 100, 100, 0, 0},
		{"zero thickness", 10, 0, 100, 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := GenerateRegion(tt.pitch, tt.thickness, 0, 0, tt.width, tt.height)
			if len(bars.Vertical) != tt.wantV {
				t.Errorf("vertical bars = %d, want %d", len(bars.Vertical), tt.wantV)
			}
			if len(bars.Horizontal) != tt.wantH {
				t.Errorf("horizontal bars = %d, want %d", len(bars.Horizontal), tt.wantH)
			}
			if bars.Len() != tt.wantV+tt.wantH || len(bars.All()) != bars.Len() {
				t.Errorf("Len() = %d, All() = %d, want %d", bars.Len(), len(bars.All()), tt.wantV+tt.wantH)
			}
		})
	}
}

func TestGenerateRegionThickness(t *testing.T) {
	const (
		x, y, width, height = -500.0, 300.0, 237.0, 181.0
		pitch, thickness    = 20.0, 3.5
	)
	bars := GenerateRegion(pitch, thickness, x, y, width, height)

	for i, r := range bars.Vertical {
		if math.Abs(r.Width()-thickness) > eps {
			t.Errorf("vertical bar %d width = %v, want %v", i, r.Width(), thickness)
		}
		if math.Abs(r.Height()-height) > eps {
			t.Errorf("vertical bar %d height = %v, want %v", i, r.Height(), height)
		}
	}
	for i, r := range bars.Horizontal {
		if math.Abs(r.Height()-thickness) > eps {
			t.Errorf("horizontal bar %d height = %v, want %v", i, r.Height(), thickness)
		}
		if math.Abs(r.Width()-width) > eps {
			t.Errorf("horizontal bar %d width = %v, want %v", i, r.Width(), width)
		}
	}
}

func TestGenerateRegionCentred(t *testing.T) {
	// 25 wide at pitch 10 leaves 5, so the first bar starts 2.5 in.
	bars := GenerateRegion(10, 1, 0, 0, 25, 10)
	if len(bars.Vertical) != 2 {
		t.Fatalf("got %d vertical bars, want 2", len(bars.Vertical))
	}
	if got := bars.Vertical[0].Min.X; math.Abs(got-2.5) > eps {
		t.Errorf("first vertical bar x = %v, want 2.5", got)
	}
	if got := bars.Vertical[1].Min.X; math.Abs(got-12.5) > eps {
		t.Errorf("second vertical bar x = %v, want 12.5", got)
	}

	if len(bars.Horizontal) != 1 {
		t.Fatalf("got %d horizontal bars, want 1", len(bars.Horizontal))
	}
	if got := bars.Horizontal[0].Max.Y; math.Abs(got) > eps {
		t.Errorf("horizontal bar top = %v, want 0", got)
	}
}
