package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// GDSII record tags (record type byte, data type byte).
const (
	recHeader   = 0x0002
	recBgnLib   = 0x0102
	recLibName  = 0x0206
	recUnits    = 0x0305
	recEndLib   = 0x0400
	recBgnStr   = 0x0502
	recStrName  = 0x0606
	recEndStr   = 0x0700
	recBoundary = 0x0800
	recSRef     = 0x0A00
	recLayer    = 0x0D02
	recDatatype = 0x0E02
	recXY       = 0x1003
	recEndel    = 0x1100
	recSName    = 0x1206
)

const gdsVersion = 600

// maxXYPoints is the GDSII limit on coordinate pairs per XY record,
// including the closing point of a boundary.
const maxXYPoints = 8191

// gdsLayout describes one library: a base cell holding the component
// polygons and a top cell placing rows x columns references to it.
type gdsLayout struct {
	LibName  string
	BaseCell string
	TopCell  string
	Layer    int

	Polygons []Polygon // working units

	Rows, Columns  int
	PitchX, PitchY float64 // working units

	DBPerUnit  float64 // database units per working unit
	UnitMeters float64 // meters per working unit

	ModTime time.Time
}

// writeGDS serialises the layout as a GDSII stream.
func writeGDS(w io.Writer, l gdsLayout) error {
	g := &gdsWriter{w: bufio.NewWriter(w)}

	g.record(recHeader, int16Bytes(gdsVersion))
	g.record(recBgnLib, timestampBytes(l.ModTime))
	g.recordString(recLibName, l.LibName)
	g.record(recUnits, append(real8Bytes(1/l.DBPerUnit), real8Bytes(l.UnitMeters/l.DBPerUnit)...))

	// Base cell: one boundary per component polygon.
	g.record(recBgnStr, timestampBytes(l.ModTime))
	g.recordString(recStrName, l.BaseCell)
	for i, p := range l.Polygons {
		if len(p.X) < 3 || len(p.X) != len(p.Y) {
			return &ExportError{Path: l.LibName, Err: fmt.Errorf("polygon %d has %d points", i, len(p.X))}
		}
		if len(p.X)+1 > maxXYPoints {
			return &ExportError{Path: l.LibName, Err: fmt.Errorf("polygon %d exceeds %d points", i, maxXYPoints)}
		}
		g.record(recBoundary, nil)
		g.record(recLayer, int16Bytes(int16(l.Layer)))
		g.record(recDatatype, int16Bytes(0))
		g.record(recXY, boundaryXY(p, l.DBPerUnit))
		g.record(recEndel, nil)
	}
	g.record(recEndStr, nil)

	// Top cell: rows x columns references to the base cell, spaced by the
	// unit-cell extent and centered as a group about the origin.
	g.record(recBgnStr, timestampBytes(l.ModTime))
	g.recordString(recStrName, l.TopCell)
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Columns; c++ {
			x := (float64(c) - float64(l.Columns-1)/2) * l.PitchX
			y := (float64(r) - float64(l.Rows-1)/2) * l.PitchY
			g.record(recSRef, nil)
			g.recordString(recSName, l.BaseCell)
			g.record(recXY, xyBytes([]int32{toDB(x, l.DBPerUnit), toDB(y, l.DBPerUnit)}))
			g.record(recEndel, nil)
		}
	}
	g.record(recEndStr, nil)

	g.record(recEndLib, nil)
	if g.err != nil {
		return g.err
	}
	return g.w.Flush()
}

// gdsWriter emits length-prefixed records with a sticky error.
type gdsWriter struct {
	w   *bufio.Writer
	err error
}

func (g *gdsWriter) record(tag uint16, data []byte) {
	if g.err != nil {
		return
	}
	if len(data)%2 != 0 {
		g.err = fmt.Errorf("gds record %#04x has odd payload length %d", tag, len(data))
		return
	}
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[0:], uint16(4+len(data)))
	binary.BigEndian.PutUint16(hdr[2:], tag)
	if _, err := g.w.Write(hdr[:]); err != nil {
		g.err = err
		return
	}
	if _, err := g.w.Write(data); err != nil {
		g.err = err
	}
}

// recordString writes an ASCII record, NUL-padded to even length.
func (g *gdsWriter) recordString(tag uint16, s string) {
	data := []byte(s)
	if len(data)%2 != 0 {
		data = append(data, 0)
	}
	g.record(tag, data)
}

func int16Bytes(vs ...int16) []byte {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

// timestampBytes encodes the modification and access timestamps of a
// BGNLIB/BGNSTR record.
func timestampBytes(t time.Time) []byte {
	if t.IsZero() {
		t = time.Now()
	}
	fields := []int16{
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()),
	}
	return int16Bytes(append(fields, fields...)...)
}

// boundaryXY encodes a polygon's vertices, repeating the first point to
// close the boundary.
func boundaryXY(p Polygon, dbPerUnit float64) []byte {
	coords := make([]int32, 0, 2*(len(p.X)+1))
	for i := range p.X {
		coords = append(coords, toDB(p.X[i], dbPerUnit), toDB(p.Y[i], dbPerUnit))
	}
	coords = append(coords, toDB(p.X[0], dbPerUnit), toDB(p.Y[0], dbPerUnit))
	return xyBytes(coords)
}

func xyBytes(coords []int32) []byte {
	b := make([]byte, 4*len(coords))
	for i, v := range coords {
		binary.BigEndian.PutUint32(b[4*i:], uint32(v))
	}
	return b
}

func toDB(v, dbPerUnit float64) int32 {
	return int32(math.Round(v * dbPerUnit))
}

// real8Bytes encodes a float as a GDSII 8-byte real: sign bit, excess-64
// base-16 exponent, 56-bit mantissa in [1/16, 1).
func real8Bytes(v float64) []byte {
	b := make([]byte, 8)
	if v == 0 {
		return b
	}

	neg := false
	if v < 0 {
		neg = true
		v = -v
	}

	exp := 0
	for v >= 1 {
		v /= 16
		exp++
	}
	for v < 1.0/16 {
		v *= 16
		exp--
	}

	b[0] = byte((exp + 64) & 0x7f)
	if neg {
		b[0] |= 0x80
	}
	for i := 1; i < 8; i++ {
		v *= 256
		d := math.Floor(v)
		b[i] = byte(d)
		v -= d
	}
	return b
}
