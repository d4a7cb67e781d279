package gds

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/errors"
)

// Option configures the library built from a cell.
type Option func(*Library)

// WithLibraryName sets the library name.
func WithLibraryName(name string) Option {
	return func(l *Library) { l.Name = name }
}

// WithModified sets the timestamp written to the library and structure.
func WithModified(t time.Time) Option {
	return func(l *Library) { l.Modified = t }
}

// FromCell converts a wafer cell into a library with a single structure.
func FromCell(cell *wafer.Cell, units wafer.Units, opts ...Option) *Library {
	shapes := cell.Shapes()
	s := Structure{Name: cell.Name(), Boundaries: make([]Boundary, len(shapes))}
	for i, sh := range shapes {
		s.Boundaries[i] = Boundary{Layer: int16(sh.Layer), Points: sh.Points}
	}
	lib := &Library{
		Name:       DefaultLibraryName,
		Unit:       float64(units.Unit),
		Precision:  float64(units.Precision),
		Structures: []Structure{s},
	}
	for _, opt := range opts {
		opt(lib)
	}
	return lib
}

// NewWriter returns a wafer.Writer that encodes the cell to w.
func NewWriter(w io.Writer, opts ...Option) wafer.Writer {
	return wafer.WriterFunc(func(ctx context.Context, cell *wafer.Cell, units wafer.Units) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return Encode(w, FromCell(cell, units, opts...))
	})
}

// FileWriter returns a wafer.Writer that creates or truncates path.
func FileWriter(path string, opts ...Option) wafer.Writer {
	return wafer.WriterFunc(func(ctx context.Context, cell *wafer.Cell, units wafer.Units) error {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
		}
		if err := NewWriter(f, opts...).WriteCell(ctx, cell, units); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

// ReadFile decodes the library stored at path.
func ReadFile(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
