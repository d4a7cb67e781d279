package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/wafermask/pkg/observability"
)

// spinnerHooks reports section progress on a spinner.
type spinnerHooks struct {
	observability.NoopGenerationHooks
	spinner *Spinner
	total   int
	done    int
}

func (h *spinnerHooks) OnGenerateStart(_ context.Context, job string, sections int) {
	h.total = sections
	h.done = 0
	h.spinner.SetMessage(fmt.Sprintf("Generating %s (%d sections)...", job, sections))
}

func (h *spinnerHooks) OnSectionComplete(_ context.Context, _ string, section int, structure string, shapes int, _ time.Duration) {
	h.done++
	h.spinner.SetMessage(fmt.Sprintf("Section %d/%d: %s, %d shapes", h.done, h.total, structure, shapes))
}

func (h *spinnerHooks) OnRenderComplete(_ context.Context, format string, _ int, _ time.Duration, _ error) {
	h.spinner.SetMessage(fmt.Sprintf("Rendered %s...", format))
}

// withSpinnerHooks routes generation events to s until the returned
// function is called.
func withSpinnerHooks(s *Spinner) (restore func()) {
	prev := observability.Generation()
	observability.SetGenerationHooks(&spinnerHooks{spinner: s})
	return func() { observability.SetGenerationHooks(prev) }
}
