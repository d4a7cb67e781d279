package gds

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/errors"
)

// Decode reads a GDSII stream. Only BOUNDARY elements are kept; other
// elements are skipped.
func Decode(r io.Reader) (*Library, error) {
	d := &decoder{r: bufio.NewReader(r)}
	lib := &Library{}

	var (
		cur   *Structure
		el    *Boundary
		scale = 1.0
	)
	for {
		rec, data, err := d.next()
		if err == io.EOF {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "stream ended before ENDLIB")
		}
		if err != nil {
			return nil, err
		}

		switch rec {
		case recBgnLib:
			if len(data) >= 12 {
				lib.Modified = parseTimestamp(data)
			}
		case recLibName:
			lib.Name = cstring(data)
		case recUnits:
			if len(data) != 16 {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "UNITS record has %d bytes", len(data))
			}
			userPerDB := decodeReal(binary.BigEndian.Uint64(data[0:8]))
			lib.Precision = decodeReal(binary.BigEndian.Uint64(data[8:16]))
			if userPerDB > 0 {
				lib.Unit = lib.Precision / userPerDB
				scale = userPerDB
			}
		case recBgnStr:
			lib.Structures = append(lib.Structures, Structure{})
			cur = &lib.Structures[len(lib.Structures)-1]
		case recStrName:
			if cur == nil {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "STRNAME outside a structure")
			}
			cur.Name = cstring(data)
		case recEndStr:
			cur = nil
		case recBoundary:
			if cur == nil {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "BOUNDARY outside a structure")
			}
			el = &Boundary{}
		case recPath, recSRef, recARef, recText, recNode, recBox:
			// Other elements are read through to their ENDEL.
			el = nil
		case recLayer:
			if el != nil && len(data) >= 2 {
				el.Layer = int16(binary.BigEndian.Uint16(data))
			}
		case recDatatype:
			if el != nil && len(data) >= 2 {
				el.Datatype = int16(binary.BigEndian.Uint16(data))
			}
		case recXY:
			if el == nil {
				continue
			}
			n := len(data) / 8
			pts := make(geometry.Polygon, 0, n)
			for i := 0; i < n; i++ {
				x := int32(binary.BigEndian.Uint32(data[8*i:]))
				y := int32(binary.BigEndian.Uint32(data[8*i+4:]))
				pts = append(pts, geometry.Point{X: float64(x) * scale, Y: float64(y) * scale})
			}
			if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
				pts = pts[:len(pts)-1]
			}
			el.Points = pts
		case recEndEl:
			if el != nil && cur != nil {
				cur.Boundaries = append(cur.Boundaries, *el)
			}
			el = nil
		case recEndLib:
			return lib, nil
		}
	}
}

type decoder struct {
	r   *bufio.Reader
	hdr [4]byte
}

func (d *decoder) next() (uint16, []byte, error) {
	if _, err := io.ReadFull(d.r, d.hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return 0, nil, errors.New(errors.ErrCodeInvalidFormat, "truncated record header")
		}
		return 0, nil, err
	}
	size := int(binary.BigEndian.Uint16(d.hdr[0:2]))
	rec := binary.BigEndian.Uint16(d.hdr[2:4])
	if size < 4 {
		return 0, nil, errors.New(errors.ErrCodeInvalidFormat, "record 0x%04x has invalid length %d", rec, size)
	}
	data := make([]byte, size-4)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return 0, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "truncated record 0x%04x", rec)
	}
	return rec, data, nil
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func parseTimestamp(b []byte) time.Time {
	v := func(i int) int { return int(int16(binary.BigEndian.Uint16(b[2*i:]))) }
	return time.Date(v(0), time.Month(v(1)), v(2), v(3), v(4), v(5), 0, time.UTC)
}
