package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/errors"
)

const sample = `
name = "chip-a"
cell = "CHIP_A"
size = 100
margin = 5
rows = 2
cols = 2
max_points = 500

[[section]]
number = 3
structure = "Lines H"
distance = 40
radius = 4

[[section]]
number = 1
structure = "pillars"
distance = 20
radius = 5
`

func TestParse(t *testing.T) {
	j, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if j.Name != "chip-a" || j.Cell != "CHIP_A" || j.Size != wafer.Size4Inch {
		t.Errorf("header = %q %q %v", j.Name, j.Cell, j.Size)
	}
	if j.Unit != DefaultUnit || j.Precision != DefaultPrecision {
		t.Errorf("units = %q/%q, want defaults", j.Unit, j.Precision)
	}
	if j.MaxPoints == nil || *j.MaxPoints != 500 {
		t.Errorf("MaxPoints = %v, want 500", j.MaxPoints)
	}
	if len(j.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(j.Sections))
	}
	s, ok := j.Section(3)
	if !ok || s.Structure != wafer.LinesHorizontal || s.Distance != 40 || s.Radius != 4 {
		t.Errorf("Section(3) = %+v, %v", s, ok)
	}
	if sorted := j.SortedSections(); sorted[0].Number != 1 || sorted[1].Number != 3 {
		t.Errorf("SortedSections() = %+v", sorted)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"syntax", `name = `, "decode job"},
		{"unknown key", "colour = \"red\"", "unknown keys"},
		{"unsupported size", "size = 200", "not supported"},
		{"undeclared size", "size = 75", "must be one of"},
		{"bad unit", `unit = "mm"`, "units"},
		{"precision above unit", "unit = \"nm\"\nprecision = \"um\"", "must not exceed"},
		{"bad rows", "rows = 0", "rows and cols"},
		{"section out of range", "[[section]]\nnumber = 2\ndistance = 20\nradius = 5", "between 1 and 1"},
		{"duplicate section", "rows = 2\n[[section]]\nnumber = 1\ndistance = 20\nradius = 5\n[[section]]\nnumber = 1\ndistance = 20\nradius = 5", "twice"},
		{"overlapping pillars", "[[section]]\nnumber = 1\ndistance = 8\nradius = 5", "section 1"},
		{"unknown structure", "[[section]]\nnumber = 1\nstructure = \"dots\"\ndistance = 8\nradius = 1", "decode job"},
		{"bad name", `name = "../escape"`, "name"},
		{"bad cell", `cell = "my cell"`, "cell"},
		{"negative max points", "max_points = -1", "max_points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Parse() succeeded")
			}
			if !errors.Is(err, errors.ErrCodeInvalidJob) {
				t.Errorf("error code = %v, want INVALID_JOB", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	j, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(j)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(data), `structure = "Lines H"`) {
		t.Errorf("structure not encoded by name:\n%s", data)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error: %v\n%s", err, data)
	}
	if back.Sections[0].Number != 1 {
		t.Errorf("sections not sorted on save: %+v", back.Sections)
	}
	if back.Name != j.Name || *back.MaxPoints != *j.MaxPoints || len(back.Sections) != 2 {
		t.Errorf("round trip = %+v", back)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.toml")

	j := Default()
	j.Rows, j.Cols = 1, 3
	j.SetSection(Section{Number: 2, Structure: wafer.Grid, Distance: 100, Radius: 10})
	j.SetSection(Section{Number: 2, Structure: wafer.Grid, Distance: 200, Radius: 10})
	if len(j.Sections) != 1 {
		t.Fatalf("SetSection() duplicated: %+v", j.Sections)
	}

	if err := Save(path, j); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s, _ := back.Section(2); s.Distance != 200 {
		t.Errorf("Section(2) = %+v", s)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("rows = -1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, errors.ErrCodeInvalidJob) || !strings.Contains(err.Error(), bad) {
		t.Errorf("Load(bad) error = %v", err)
	}
}

func TestParseJSON(t *testing.T) {
	j, err := ParseJSON([]byte(`{"name":"api","rows":1,"cols":2,"sections":[{"number":2,"structure":"Grid","distance":50,"radius":5}]}`))
	if err != nil {
		t.Fatalf("ParseJSON() error: %v", err)
	}
	if s, ok := j.Section(2); !ok || s.Structure != wafer.Grid {
		t.Errorf("Section(2) = %+v, %v", s, ok)
	}
	if j.Size != DefaultSize {
		t.Errorf("Size = %v, want default", j.Size)
	}
	if _, err := ParseJSON([]byte(`{"name":"api","extra":1}`)); !errors.Is(err, errors.ErrCodeInvalidJob) {
		t.Errorf("ParseJSON(unknown field) error = %v", err)
	}
}

func TestBuild(t *testing.T) {
	j, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	w, err := j.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if w.NumSections() != 4 || w.Cell().Name() != "CHIP_A" {
		t.Errorf("wafer has %d sections, cell %q", w.NumSections(), w.Cell().Name())
	}
	got, err := w.Setup(3)
	if err != nil || got != (wafer.Setup{Distance: 40, Radius: 4, Structure: wafer.LinesHorizontal}) {
		t.Errorf("Setup(3) = %+v, %v", got, err)
	}
	if _, err := w.Setup(2); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Setup(2) error = %v, want NOT_FOUND", err)
	}
}

func TestRemoveSection(t *testing.T) {
	j := Default()
	j.Rows, j.Cols = 1, 3
	j.SetSection(Section{Number: 1, Structure: wafer.Grid, Distance: 100, Radius: 10})
	j.SetSection(Section{Number: 3, Structure: wafer.Pillars, Distance: 100, Radius: 10})

	if !j.RemoveSection(1) {
		t.Error("RemoveSection(1) = false, want true")
	}
	if j.RemoveSection(1) {
		t.Error("second RemoveSection(1) = true, want false")
	}
	if _, ok := j.Section(1); ok {
		t.Error("section 1 still present")
	}
	if _, ok := j.Section(3); !ok || len(j.Sections) != 1 {
		t.Errorf("sections = %+v, want only 3", j.Sections)
	}
}
