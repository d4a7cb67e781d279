package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/errors"
	"github.com/matzehuels/wafermask/pkg/gds"
	"github.com/matzehuels/wafermask/pkg/job"
	"github.com/matzehuels/wafermask/pkg/pipeline"
	"github.com/matzehuels/wafermask/pkg/store"
)

func testCLI() *CLI {
	return New(&bytes.Buffer{}, LogInfo)
}

func testJob() *job.Job {
	j := job.Default()
	j.Name = "test"
	j.Size = wafer.Size2Inch
	j.Cols = 2
	j.Sections = []job.Section{
		{Number: 2, Structure: wafer.Grid, Distance: 5000, Radius: 200},
	}
	return j
}

// isolateDirs points the cache and state directories into a temp dir.
func isolateDirs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	return dir
}

func square(x, y, size float64) geometry.Polygon {
	return geometry.Polygon{{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}}
}

func TestRunInit(t *testing.T) {
	c := testCLI()
	path := filepath.Join(t.TempDir(), "wafer.toml")

	j := job.Default()
	j.Rows, j.Cols = 2, 3
	if err := c.runInit(path, j, false); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}
	loaded, err := job.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Rows != 2 || loaded.Cols != 3 || loaded.Size != job.DefaultSize {
		t.Errorf("loaded job = %+v", loaded)
	}

	if err := c.runInit(path, j, false); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("runInit() on existing file error = %v, want INVALID_ARGUMENT", err)
	}
	if err := c.runInit(path, j, true); err != nil {
		t.Errorf("runInit(force) error: %v", err)
	}

	bad := job.Default()
	bad.Size = wafer.Size8Inch
	if err := c.runInit(filepath.Join(t.TempDir(), "bad.toml"), bad, false); err == nil {
		t.Error("runInit() accepted an unsupported size")
	}
}

func TestRunGenerate(t *testing.T) {
	dir := isolateDirs(t)
	c := testCLI()

	path := filepath.Join(dir, "job.toml")
	if err := job.Save(path, testJob()); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	opts := generateOpts{output: out, formats: "gds,json"}

	if err := c.runGenerate(context.Background(), path, opts); err != nil {
		t.Fatalf("runGenerate() error: %v", err)
	}

	lib, err := gds.ReadFile(filepath.Join(out, "test.gds"))
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if lib.Name != "test" {
		t.Errorf("library name = %q, want test", lib.Name)
	}
	if counts := lib.LayerCounts(); counts[int16(geometry.LayerStructures)] == 0 {
		t.Errorf("no structures written: %v", counts)
	}
	if _, err := os.Stat(filepath.Join(out, "test.json")); err != nil {
		t.Errorf("json artifact missing: %v", err)
	}

	// The second run is served from the cache.
	if err := c.runGenerate(context.Background(), path, opts); err != nil {
		t.Fatalf("second runGenerate() error: %v", err)
	}
	st, err := newHistory(false)
	if err != nil {
		t.Fatal(err)
	}
	records, err := st.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("history has %d records, want 2", len(records))
	}
	if !records[0].CacheHit || records[1].CacheHit {
		t.Errorf("cache hits = %v, %v, want true, false", records[0].CacheHit, records[1].CacheHit)
	}
}

func TestRunGenerateErrors(t *testing.T) {
	dir := isolateDirs(t)
	c := testCLI()

	if err := c.runGenerate(context.Background(), filepath.Join(dir, "missing.toml"), generateOpts{}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing job error = %v, want FILE_NOT_FOUND", err)
	}

	path := filepath.Join(dir, "job.toml")
	if err := job.Save(path, testJob()); err != nil {
		t.Fatal(err)
	}
	if err := c.runGenerate(context.Background(), path, generateOpts{formats: "dxf", noCache: true, noHistory: true}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad format error = %v, want INVALID_FORMAT", err)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	j := testJob()
	artifacts := map[string][]byte{"gds": []byte("layout"), "svg": []byte("<svg/>")}

	paths, err := writeArtifacts(dir, j, artifacts, []string{"svg", "png", "gds"})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}
	want := []string{filepath.Join(dir, "test.svg"), filepath.Join(dir, "test.gds")}
	if strings.Join(paths, "|") != strings.Join(want, "|") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
	data, _ := os.ReadFile(want[1])
	if string(data) != "layout" {
		t.Errorf("gds content = %q", data)
	}
}

func TestSectionCells(t *testing.T) {
	rows, err := pipeline.SectionTable(testJob())
	if err != nil {
		t.Fatal(err)
	}
	cells := sectionCells(rows)
	if len(cells) != 2 {
		t.Fatalf("got %d rows, want 2", len(cells))
	}

	tests := []struct {
		row  int
		want []string
	}{
		{0, []string{"1", "1", "1", "Pillars", "0", "0"}},
		{1, []string{"2", "1", "2", "Grid", "5000", "200"}},
	}
	for _, tt := range tests {
		got := cells[tt.row][:6]
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("row %d = %v, want %v", tt.row, got, tt.want)
		}
	}
}

func TestSizeCells(t *testing.T) {
	cells := sizeCells()
	if len(cells) != len(wafer.Sizes) {
		t.Fatalf("got %d rows, want %d", len(cells), len(wafer.Sizes))
	}

	want := map[string][]string{
		"100": {"100", `4"`, "100mm", "71.03°", "47.28 mm"},
		"200": {"200", `8"`, "200mm", "unsupported", "-"},
	}
	for _, row := range cells {
		if w, ok := want[row[0]]; ok && strings.Join(row, "|") != strings.Join(w, "|") {
			t.Errorf("row = %v, want %v", row, w)
		}
	}
}

func TestBuildArray(t *testing.T) {
	opts := arrayOpts{distance: 2000, radius: 500, rows: 3, cols: 4, size: 100, margin: 5, unit: "um", precision: "nm"}

	cell, units, err := buildArray(opts)
	if err != nil {
		t.Fatalf("buildArray() error: %v", err)
	}
	if cell.Name() != arrayCellName {
		t.Errorf("cell name = %q, want %q", cell.Name(), arrayCellName)
	}
	if units.Unit != wafer.Microns || units.Precision != wafer.Nanometers {
		t.Errorf("units = %+v", units)
	}

	tests := []struct {
		layer geometry.Layer
		want  int
	}{
		{arrayPillarLayer, 12},
		{arrayOutlineLayer, 1},
		{arrayMarginLayer, 1},
	}
	for _, tt := range tests {
		if got := len(cell.Layer(tt.layer)); got != tt.want {
			t.Errorf("layer %d has %d shapes, want %d", tt.layer, got, tt.want)
		}
	}

	// The margin outline lies inside the wafer outline.
	outline := cell.Layer(arrayOutlineLayer)[0].Points.Bounds()
	margin := cell.Layer(arrayMarginLayer)[0].Points.Bounds()
	if margin.Max.X >= outline.Max.X || margin.Max.Y >= outline.Max.Y {
		t.Errorf("margin %v not inside outline %v", margin, outline)
	}
}

func TestBuildArrayErrors(t *testing.T) {
	base := arrayOpts{distance: 2000, radius: 500, rows: 2, cols: 2, size: 100, margin: 5, unit: "um", precision: "nm"}

	tests := []struct {
		name   string
		modify func(*arrayOpts)
	}{
		{"overhang overlaps", func(o *arrayOpts) { o.overhang = 600 }},
		{"no rows", func(o *arrayOpts) { o.rows = 0 }},
		{"unsupported size", func(o *arrayOpts) { o.size = 200 }},
		{"bad unit", func(o *arrayOpts) { o.unit = "mm" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.modify(&opts)
			if _, _, err := buildArray(opts); err == nil {
				t.Error("buildArray() succeeded, want error")
			}
		})
	}
}

func TestRunArrayThenInspect(t *testing.T) {
	c := testCLI()
	out := filepath.Join(t.TempDir(), "pillars.gds")
	opts := arrayOpts{output: out, distance: 2000, radius: 500, rows: 2, cols: 3, size: 51, margin: 2, unit: "um", precision: "nm"}

	if err := c.runArray(context.Background(), opts); err != nil {
		t.Fatalf("runArray() error: %v", err)
	}
	if err := c.runInspect(out, false); err != nil {
		t.Fatalf("runInspect() error: %v", err)
	}

	lib, err := gds.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := lib.Structure(arrayCellName); !ok {
		t.Errorf("structure %s missing", arrayCellName)
	}
	layers := collectLayers(lib)
	if len(layers) != 3 {
		t.Fatalf("got %d layers, want 3", len(layers))
	}
	for i, want := range []int{6, 1, 1} {
		if layers[i].boundaries != want {
			t.Errorf("layer %d has %d boundaries, want %d", layers[i].layer, layers[i].boundaries, want)
		}
	}

	rows := layerCells(lib, false)
	for i, want := range []string{"pillars", "outline", "margin"} {
		if rows[i][1] != want {
			t.Errorf("layer %s named %q, want %q", rows[i][0], rows[i][1], want)
		}
	}
	// 199 samples per pillar, the closing sample dropped.
	if got, want := layers[0].vertices, 6*(geometry.DefaultArcPoints-1); got != want {
		t.Errorf("pillar layer has %d vertices, want %d", got, want)
	}
}

func TestRunInspectMissing(t *testing.T) {
	err := testCLI().runInspect(filepath.Join(t.TempDir(), "none.gds"), false)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("runInspect() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLayerCellsCoverage(t *testing.T) {
	lib := &gds.Library{Structures: []gds.Structure{{
		Name: "A",
		Boundaries: []gds.Boundary{
			{Layer: 3, Points: square(0, 0, 10)},
			{Layer: 3, Points: square(5, 0, 10)},
			{Layer: 1, Points: square(0, 0, 1)},
		},
	}}}

	got := layerCells(lib, true)
	want := [][]string{
		{"1", "wafer", "1", "4", "1"},
		{"3", "structures", "2", "8", "150"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if strings.Join(got[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}

	if rows := layerCells(lib, false); len(rows[0]) != 4 {
		t.Errorf("coverage column present without coverage: %v", rows[0])
	}
}

func TestHistoryCells(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []store.Record{{
		ID:        "4f9c2a1e-0000-4000-8000-000000000000",
		CreatedAt: now.Add(-90 * time.Minute),
		Job:       "mask",
		Size:      100,
		Sections:  4,
		Shapes:    1200,
		Formats:   []string{"gds", "svg"},
		Duration:  1500 * time.Millisecond,
	}}

	got := historyCells(records, now)[0]
	want := []string{"4f9c2a1e", "1h ago", "mask", "100mm", "4", "1200", "gds,svg", "1.5s"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("historyCells() = %v, want %v", got, want)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestFindRun(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"aaaa-1", "aaab-2", "bbbb-3"} {
		if err := st.Save(ctx, store.Record{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		id     string
		wantID string
		code   errors.Code
	}{
		{"aaaa-1", "aaaa-1", ""},
		{"bbbb", "bbbb-3", ""},
		{"aaa", "", errors.ErrCodeInvalidArgument},
		{"cccc", "", errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, err := findRun(ctx, st, tt.id)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Errorf("findRun() error = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("findRun() error: %v", err)
			}
			if r.ID != tt.wantID {
				t.Errorf("findRun() = %q, want %q", r.ID, tt.wantID)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestServerURL(t *testing.T) {
	tests := map[string]string{
		":8080":        "http://localhost:8080",
		"0.0.0.0:9000": "http://0.0.0.0:9000",
		"mask.lab:80":  "http://mask.lab:80",
	}
	for addr, want := range tests {
		if got := serverURL(addr); got != want {
			t.Errorf("serverURL(%q) = %q, want %q", addr, got, want)
		}
	}
}
