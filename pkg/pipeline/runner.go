package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/wafermask/pkg/cache"
	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/gds"
	"github.com/matzehuels/wafermask/pkg/job"
	"github.com/matzehuels/wafermask/pkg/observability"
	"github.com/matzehuels/wafermask/pkg/render"
	"github.com/matzehuels/wafermask/pkg/store"
)

// Runner encapsulates pipeline execution with caching and run history.
// Both CLI and API use it to avoid duplicating that logic.
//
// The Runner holds no per-run state. Multiple goroutines can safely use the
// same Runner with different jobs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store
	Logger *log.Logger
}

// NewRunner creates a runner. Nil arguments fall back to a DefaultKeyer,
// a NullCache, a NullStore and the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, st store.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if st == nil {
		st = store.NullStore{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  st,
		Logger: logger,
	}
}

// Execute runs the complete build → generate → render pipeline for j.
func (r *Runner) Execute(ctx context.Context, j *job.Job, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	hash, err := HashJob(j)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString(), JobHash: hash}
	start := time.Now()

	if !opts.Refresh {
		if r.loadCached(ctx, result, opts) {
			r.Logger.Info("served from cache", "job", j.Name, "formats", opts.Formats)
			r.record(ctx, j, result, opts, time.Since(start))
			return result, nil
		}
	}

	// Stage 1+2: Build and generate
	genStart := time.Now()
	w, report, layout, err := r.Generate(ctx, j, opts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	result.Report = report
	result.Stats.Shapes = w.Cell().Len()
	result.Stats.GenerateTime = time.Since(genStart)

	r.Logger.Info("generated layout",
		"sections", len(result.Report.Sections),
		"shapes", result.Stats.Shapes,
		"duration", result.Stats.GenerateTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, err := r.Render(ctx, w, layout, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	r.storeCached(ctx, result, opts)
	r.record(ctx, j, result, opts, time.Since(start))
	return result, nil
}

// Generate builds the wafer of j and generates every section, returning
// the wafer, the generation report and the encoded GDSII stream.
func (r *Runner) Generate(ctx context.Context, j *job.Job, opts Options) (*wafer.Wafer, wafer.Report, []byte, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.SetDefaults()

	hooks := observability.Generation()
	hooks.OnGenerateStart(ctx, j.Name, len(j.Sections))
	start := time.Now()

	w, err := j.Build(
		wafer.WithLogger(opts.Logger),
		wafer.WithWorkers(opts.Workers),
		wafer.WithObserver(func(sr wafer.SectionResult) {
			hooks.OnSectionComplete(ctx, j.Name, sr.Section, sr.Setup.Structure.String(), sr.Shapes, sr.Duration)
		}),
	)
	if err != nil {
		hooks.OnGenerateComplete(ctx, j.Name, 0, time.Since(start), err)
		return nil, wafer.Report{}, nil, err
	}

	var buf bytes.Buffer
	report, err := w.GenerateAll(ctx, gds.NewWriter(&buf, gds.WithLibraryName(j.Name)))
	hooks.OnGenerateComplete(ctx, j.Name, report.Shapes, time.Since(start), err)
	if err != nil {
		return nil, wafer.Report{}, nil, err
	}
	return w, report, buf.Bytes(), nil
}

// Render encodes the generated wafer in every requested format. layout is
// the already encoded GDSII stream.
func (r *Runner) Render(ctx context.Context, w *wafer.Wafer, layout []byte, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	var svg []byte
	preview := func() []byte {
		if svg == nil {
			svg = render.RenderSVG(w.Cell(), render.WithWidth(float64(opts.Width)))
		}
		return svg
	}

	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatGDS:
			data = layout
		case FormatSVG:
			data = preview()
		case FormatPNG:
			data, err = render.ToPNG(preview(), 1)
		case FormatPDF:
			data, err = render.ToPDF(preview())
		case FormatJSON:
			data, err = render.RenderJSON(w.Cell(), w.Units())
		}
		observability.Generation().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// loadCached fills result from the cache when the report and every
// requested artifact are present.
func (r *Runner) loadCached(ctx context.Context, result *Result, opts Options) bool {
	hooks := observability.Cache()

	data, hit, err := r.Cache.Get(ctx, r.Keyer.ReportKey(result.JobHash))
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, "report")
		return false
	}
	var report wafer.Report
	if err := json.Unmarshal(data, &report); err != nil {
		hooks.OnCacheMiss(ctx, "report")
		return false
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(result.JobHash, opts.ArtifactKeyOpts(format)))
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, "artifact")
			return false
		}
		artifacts[format] = data
	}
	hooks.OnCacheHit(ctx, "artifact")

	result.Report = report
	result.Artifacts = artifacts
	result.Stats.Shapes = report.Shapes
	result.CacheHit = true
	return true
}

// storeCached writes the report and artifacts of result to the cache.
// Failures are logged and otherwise ignored.
func (r *Runner) storeCached(ctx context.Context, result *Result, opts Options) {
	hooks := observability.Cache()
	if data, err := json.Marshal(result.Report); err == nil {
		if err := r.Cache.Set(ctx, r.Keyer.ReportKey(result.JobHash), data, cache.TTLReport); err != nil {
			r.Logger.Warn("cache write failed", "key", "report", "error", err)
		} else {
			hooks.OnCacheSet(ctx, "report", len(data))
		}
	}
	for format, data := range result.Artifacts {
		key := r.Keyer.ArtifactKey(result.JobHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "error", err)
			continue
		}
		hooks.OnCacheSet(ctx, "artifact", len(data))
	}
}

// record saves a history entry for the run. Failures are logged.
func (r *Runner) record(ctx context.Context, j *job.Job, result *Result, opts Options, d time.Duration) {
	cell := j.Cell
	if cell == "" {
		cell = wafer.DefaultCellName
	}
	outputs := make([]string, len(opts.Formats))
	for i, f := range opts.Formats {
		outputs[i] = FileName(j, f)
	}
	rec := store.Record{
		ID:        result.RunID,
		CreatedAt: time.Now().UTC(),
		Job:       j.Name,
		JobHash:   result.JobHash,
		Cell:      cell,
		Size:      int(j.Size),
		Rows:      j.Rows,
		Cols:      j.Cols,
		Sections:  len(result.Report.Sections),
		Shapes:    result.Report.Shapes,
		Formats:   opts.Formats,
		Outputs:   outputs,
		CacheHit:  result.CacheHit,
		Duration:  d,
	}
	if err := r.Store.Save(ctx, rec); err != nil {
		r.Logger.Warn("history write failed", "run", rec.ID, "error", err)
	}
}

// Close releases the cache and history store.
func (r *Runner) Close(ctx context.Context) error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(ctx); err == nil {
			err = serr
		}
	}
	return err
}
