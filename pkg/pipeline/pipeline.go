// Package pipeline provides the generation pipeline shared by the CLI and
// the HTTP server.
//
// A run takes a [job.Job], builds and partitions the wafer, generates
// every configured section, writes the GDSII stream and renders any
// requested previews. By centralizing this logic both entry points get
// the same caching, history and instrumentation.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: validate the job and construct the partitioned wafer
//  2. Generate: produce, clip and commit all section structures
//  3. Render: encode the cell in each requested format (GDS, SVG, PNG, PDF, JSON)
//
// Artifacts are cached by the hash of the canonical job so repeated runs
// of an unchanged job are served from the cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, history, logger)
//	result, err := runner.Execute(ctx, j, pipeline.Options{
//	    Formats: []string{"gds", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gds := result.Artifacts["gds"]
package pipeline

import (
	"io"
	"runtime"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wafermask/pkg/cache"
	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/errors"
	"github.com/matzehuels/wafermask/pkg/job"
	"github.com/matzehuels/wafermask/pkg/render"
)

// Format constants for output formats.
const (
	FormatGDS  = "gds"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{FormatGDS}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatGDS:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ContentTypes maps each format to its MIME type.
var ContentTypes = map[string]string{
	FormatGDS:  "application/vnd.gdsii",
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
	FormatJSON: "application/json",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. The job itself carries the layout
// parameters; options only control outputs and execution.
type Options struct {
	Formats []string `json:"formats,omitempty"`

	// Width is the pixel width of SVG, PNG and PDF previews.
	Width int `json:"width,omitempty"`

	// Refresh bypasses cached artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Workers bounds concurrent section generation.
	Workers int `json:"workers,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in the history store.
	RunID string

	// JobHash is the content hash of the canonical job.
	JobHash string

	// Artifacts contains the outputs keyed by format.
	Artifacts map[string][]byte

	// Report describes the generated sections.
	Report wafer.Report

	// CacheHit is true when every artifact came from the cache.
	CacheHit bool

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Shapes       int
	GenerateTime time.Duration
	RenderTime   time.Duration
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: gds, svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if o.Width <= 0 {
		o.Width = int(render.DefaultWidth)
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options after defaults are applied.
func (o *Options) Validate() error {
	return ValidateFormats(o.Formats)
}

// ValidateAndSetDefaults applies defaults and validates. Calling it more
// than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	slices.Sort(o.Formats)
	o.Formats = slices.Compact(o.Formats)
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG, FormatPNG, FormatPDF:
		opts.Width = o.Width
	}
	return opts
}

// HashJob returns the content hash of the canonical TOML form of j.
func HashJob(j *job.Job) (string, error) {
	data, err := job.Marshal(j)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// FileName returns the output file name of a job artifact.
func FileName(j *job.Job, format string) string {
	return j.Name + "." + format
}
