/*
Package tilemap implements the companion index file that records which
unique tile is used at each position of the converted image.

The file is a 16-bit width and height counted in tiles followed by one
16-bit index per tile in row-major order, all little-endian.
*/
package tilemap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Ext is the filename extension used when writing to disk
	Ext = ".map"

	maxIndex = 1<<16 - 1
)

var errInsufficient = errors.New("tilemap: insufficient data")

// Map is the tile map object. It implements the encoding.BinaryMarshaler
// and encoding.BinaryUnmarshaler interfaces.
type Map struct {
	cols, rows int
	indices    []uint16
}

// New returns a map cols by rows tiles built from the per-tile indices
func New(cols, rows int, indices []int) (*Map, error) {
	if cols < 0 || rows < 0 || cols > maxIndex || rows > maxIndex || len(indices) != cols*rows {
		return nil, fmt.Errorf("tilemap: invalid dimensions %dx%d for %d tiles", cols, rows, len(indices))
	}
	m := &Map{
		cols:    cols,
		rows:    rows,
		indices: make([]uint16, len(indices)),
	}
	for i, n := range indices {
		if n < 0 || n > maxIndex {
			return nil, fmt.Errorf("tilemap: index %d out of range", n)
		}
		m.indices[i] = uint16(n)
	}
	return m, nil
}

// Cols returns the width in tiles
func (m *Map) Cols() int {
	return m.cols
}

// Rows returns the height in tiles
func (m *Map) Rows() int {
	return m.rows
}

// At returns the index of the unique tile at col, row
func (m *Map) At(col, row int) int {
	return int(m.indices[row*m.cols+col])
}

// Indices returns every index in row-major order
func (m *Map) Indices() []int {
	out := make([]int, len(m.indices))
	for i, n := range m.indices {
		out[i] = int(n)
	}
	return out
}

// MarshalBinary encodes the map into binary form and returns the result
func (m *Map) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)

	dims := [2]uint16{uint16(m.cols), uint16(m.rows)}
	if err := binary.Write(b, binary.LittleEndian, &dims); err != nil {
		return nil, err
	}

	if err := binary.Write(b, binary.LittleEndian, m.indices); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes the map from binary form
func (m *Map) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)

	var dims [2]uint16
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return errInsufficient
	}
	n := int(dims[0]) * int(dims[1])
	if r.Len() != n*2 {
		return errInsufficient
	}

	indices := make([]uint16, n)
	if err := binary.Read(r, binary.LittleEndian, indices); err != nil {
		return errInsufficient
	}

	m.cols, m.rows, m.indices = int(dims[0]), int(dims[1]), indices

	return nil
}
