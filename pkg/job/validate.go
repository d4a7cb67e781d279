package job

import (
	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/errors"
)

// Validate checks the job without building any geometry. Every failure is
// reported as INVALID_JOB with the underlying error as cause.
func (j *Job) Validate() error {
	invalid := func(err error, format string, args ...any) error {
		return errors.Wrap(errors.ErrCodeInvalidJob, err, format, args...)
	}

	if err := errors.ValidateBaseName(j.Name); err != nil {
		return invalid(err, "name")
	}
	if j.Cell != "" {
		if err := errors.ValidateCellName(j.Cell); err != nil {
			return invalid(err, "cell")
		}
	}
	if !j.Size.Declared() {
		return errors.New(errors.ErrCodeInvalidJob, "size %d must be one of %v", int(j.Size), wafer.Sizes)
	}
	if _, ok := j.Size.Flat(); !ok {
		return errors.New(errors.ErrCodeInvalidJob, "size %s is not supported yet", j.Size)
	}
	if j.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidJob, "margin must not be negative, got %g", j.Margin)
	}
	units, err := j.Units()
	if err != nil {
		return invalid(err, "units")
	}
	if units.Precision > units.Unit {
		return errors.New(errors.ErrCodeInvalidJob, "precision %s must not exceed unit %s", units.Precision, units.Unit)
	}
	if j.Rows < 1 || j.Cols < 1 {
		return errors.New(errors.ErrCodeInvalidJob, "rows and cols must be positive, got %dx%d", j.Rows, j.Cols)
	}
	if j.MaxPoints != nil && *j.MaxPoints < 0 {
		return errors.New(errors.ErrCodeInvalidJob, "max_points must not be negative, got %d", *j.MaxPoints)
	}

	seen := make(map[int]bool, len(j.Sections))
	for _, s := range j.Sections {
		if s.Number < 1 || s.Number > j.Rows*j.Cols {
			return errors.New(errors.ErrCodeInvalidJob, "section %d must be between 1 and %d", s.Number, j.Rows*j.Cols)
		}
		if seen[s.Number] {
			return errors.New(errors.ErrCodeInvalidJob, "section %d is defined twice", s.Number)
		}
		seen[s.Number] = true
		if err := s.Setup().Validate(); err != nil {
			return invalid(err, "section %d", s.Number)
		}
	}
	return nil
}

// Options returns the wafer options implied by the job.
func (j *Job) Options() []wafer.Option {
	var opts []wafer.Option
	if j.Cell != "" {
		opts = append(opts, wafer.WithCellName(j.Cell))
	}
	if j.MaxPoints != nil {
		opts = append(opts, wafer.WithMaxPoints(*j.MaxPoints))
	}
	return opts
}

// Build validates the job and returns a partitioned wafer with every
// section setup stored. Options passed in are applied after the job's own.
func (j *Job) Build(opts ...wafer.Option) (*wafer.Wafer, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	units, err := j.Units()
	if err != nil {
		return nil, err
	}
	w, err := wafer.New(j.Size, j.Margin, units.Unit, units.Precision, append(j.Options(), opts...)...)
	if err != nil {
		return nil, err
	}
	if err := w.Partition(j.Rows, j.Cols); err != nil {
		return nil, err
	}
	for _, s := range j.SortedSections() {
		if err := w.AddSetup(s.Number, s.Setup()); err != nil {
			return nil, err
		}
	}
	return w, nil
}
