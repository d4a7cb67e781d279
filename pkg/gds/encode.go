package gds

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/matzehuels/wafermask/pkg/errors"
)

// Encode writes lib as a GDSII stream.
func Encode(w io.Writer, lib *Library) error {
	if lib.Unit <= 0 || lib.Precision <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "unit and precision must be positive, got %g and %g", lib.Unit, lib.Precision)
	}
	name := lib.Name
	if name == "" {
		name = DefaultLibraryName
	}
	stamp := lib.Modified
	if stamp.IsZero() {
		stamp = time.Now()
	}
	scale := lib.Unit / lib.Precision

	e := &encoder{w: bufio.NewWriter(w)}
	e.int16s(recHeader, Version)
	e.int16s(recBgnLib, timestamp(stamp)...)
	e.str(recLibName, name)
	e.reals(recUnits, lib.Precision/lib.Unit, lib.Precision)

	for _, s := range lib.Structures {
		if err := errors.ValidateCellName(s.Name); err != nil {
			return err
		}
		e.int16s(recBgnStr, timestamp(stamp)...)
		e.str(recStrName, s.Name)
		for i, b := range s.Boundaries {
			xy, err := boundaryXY(b, scale)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidArgument, err, "structure %s boundary %d", s.Name, i)
			}
			e.record(recBoundary, nil)
			e.int16s(recLayer, b.Layer)
			e.int16s(recDatatype, b.Datatype)
			e.int32s(recXY, xy)
			e.record(recEndEl, nil)
		}
		e.record(recEndStr, nil)
	}
	e.record(recEndLib, nil)

	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

func boundaryXY(b Boundary, scale float64) ([]int32, error) {
	n := len(b.Points)
	if n < 3 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "boundary needs at least 3 points, got %d", n)
	}
	if n > MaxVertices {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "boundary has %d vertices, limit is %d", n, MaxVertices)
	}
	xy := make([]int32, 0, 2*(n+1))
	for _, p := range b.Points {
		x, y := math.Round(p.X*scale), math.Round(p.Y*scale)
		if x > math.MaxInt32 || x < math.MinInt32 || y > math.MaxInt32 || y < math.MinInt32 {
			return nil, errors.New(errors.ErrCodeInvalidArgument, "point (%g, %g) overflows database units", p.X, p.Y)
		}
		xy = append(xy, int32(x), int32(y))
	}
	return append(xy, xy[0], xy[1]), nil
}

func timestamp(t time.Time) []int16 {
	ts := []int16{
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()),
	}
	// Modification and access time.
	return append(ts, ts...)
}

type encoder struct {
	w   *bufio.Writer
	err error
	buf [8]byte
}

func (e *encoder) record(rec uint16, data []byte) {
	if e.err != nil {
		return
	}
	if len(data)+4 > math.MaxUint16 {
		e.err = errors.New(errors.ErrCodeInvalidArgument, "record 0x%04x too long (%d bytes)", rec, len(data)+4)
		return
	}
	binary.BigEndian.PutUint16(e.buf[0:2], uint16(len(data)+4))
	binary.BigEndian.PutUint16(e.buf[2:4], rec)
	if _, err := e.w.Write(e.buf[:4]); err != nil {
		e.err = err
		return
	}
	if _, err := e.w.Write(data); err != nil {
		e.err = err
	}
}

func (e *encoder) int16s(rec uint16, vs ...int16) {
	data := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint16(data[2*i:], uint16(v))
	}
	e.record(rec, data)
}

func (e *encoder) int32s(rec uint16, vs []int32) {
	data := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint32(data[4*i:], uint32(v))
	}
	e.record(rec, data)
}

func (e *encoder) reals(rec uint16, vs ...float64) {
	data := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint64(data[8*i:], encodeReal(v))
	}
	e.record(rec, data)
}

// str writes an ASCII string padded with NUL to an even length.
func (e *encoder) str(rec uint16, s string) {
	data := []byte(s)
	if len(data)%2 == 1 {
		data = append(data, 0)
	}
	e.record(rec, data)
}
