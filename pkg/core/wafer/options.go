package wafer

import (
	"io"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wafermask/pkg/core/clip"
)

// Option configures a Wafer at construction.
type Option func(*config)

type config struct {
	logger    *log.Logger
	workers   int
	maxPoints int
	cellName  string
	observer  func(SectionResult)
}

func defaultConfig() config {
	return config{
		logger:    log.New(io.Discard),
		workers:   runtime.GOMAXPROCS(0),
		maxPoints: clip.DefaultMaxPoints,
		cellName:  DefaultCellName,
	}
}

// WithLogger sets the logger for generation progress. By default nothing
// is logged.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWorkers limits how many sections GenerateAll builds concurrently.
// Values below one mean sequential generation.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.workers = n
	}
}

// WithMaxPoints sets the soft vertex cap for clipped shapes. Zero disables
// fracturing.
func WithMaxPoints(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxPoints = n
		}
	}
}

// WithCellName sets the name of the output cell.
func WithCellName(name string) Option {
	return func(c *config) { c.cellName = name }
}

// WithObserver registers a callback invoked after each section is
// committed to the cell.
func WithObserver(fn func(SectionResult)) Option {
	return func(c *config) { c.observer = fn }
}
