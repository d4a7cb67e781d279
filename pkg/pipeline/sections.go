package pipeline

import (
	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/job"
)

// SectionRow describes one section of a job's partition.
type SectionRow struct {
	Number int           `json:"number"`
	Row    int           `json:"row"`
	Col    int           `json:"col"`
	Setup  wafer.Setup   `json:"setup"`
	Rect   geometry.Rect `json:"rect"`

	// Configured is false when the job has no setup for the section and
	// Setup holds the default.
	Configured bool `json:"configured"`
}

// SectionTable lists every section of j's partition in numbering order
// with its rectangle and effective setup.
func SectionTable(j *job.Job) ([]SectionRow, error) {
	w, err := j.Build()
	if err != nil {
		return nil, err
	}
	setups := w.Setups()
	rows := make([]SectionRow, 0, w.NumSections())
	for n := 1; n <= w.NumSections(); n++ {
		rect, err := w.SectionRect(n)
		if err != nil {
			return nil, err
		}
		_, ok := setups[n]
		rows = append(rows, SectionRow{
			Number:     n,
			Row:        (n - 1) / w.Cols(),
			Col:        (n - 1) % w.Cols(),
			Setup:      w.SetupOrDefault(n),
			Rect:       rect,
			Configured: ok,
		})
	}
	return rows, nil
}
