package vram

import (
	"fmt"
	"io"
)

// Result describes a finished conversion
type Result struct {
	// Cols and Rows are the image size in tiles
	Cols, Rows int
	// Tiles is the number of tiles in the image
	Tiles int
	// Unique is the number of tiles written
	Unique int
	// Map holds, for every tile in walk order, the index of the unique
	// tile it is a copy of
	Map []int
}

// Encoder writes the unique tiles of an image to an io.Writer
type Encoder struct {
	w   io.Writer
	cfg *Config
}

// NewEncoder returns an Encoder writing to w. A nil cfg means
// DefaultConfig and zero fields of cfg take their default.
func NewEncoder(w io.Writer, cfg *Config) *Encoder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.withDefaults()
	return &Encoder{
		w:   w,
		cfg: cfg,
	}
}

func (e *Encoder) readTile(src Source, c Coord) (Tile, error) {
	var shades [tilePixels]Shade
	for p := range shades {
		x, y := c.Pixel(p, src.Height())
		sample, err := src.ChannelAt(x, y)
		if err != nil {
			return Tile{}, err
		}
		shades[p] = e.cfg.Quantize(sample)
	}
	return Pack(shades), nil
}

// Encode converts src, writing each tile the first time its content is
// seen. Nothing is written if the dimensions are invalid, a read error
// aborts the conversion leaving whatever was already written.
func (e *Encoder) Encode(src Source) (*Result, error) {
	if err := e.cfg.validate(); err != nil {
		return nil, err
	}

	walker, err := NewWalker(src.Width(), src.Height())
	if err != nil {
		return nil, fmt.Errorf("%w: %dx%d", err, src.Width(), src.Height())
	}

	d := NewDeduplicator(e.cfg.newHash())
	r := &Result{
		Cols:  walker.Cols,
		Rows:  walker.Rows,
		Tiles: walker.Len(),
		Map:   make([]int, walker.Len()),
	}

	for i := 0; i < walker.Len(); i++ {
		c := walker.At(i)
		t, err := e.readTile(src, c)
		if err != nil {
			return nil, fmt.Errorf("tile %d,%d: %w", c.Col, c.Row, err)
		}

		index, first := d.Consider(t)
		r.Map[i] = index
		if !first {
			continue
		}

		if _, err := e.w.Write(t[:]); err != nil {
			return nil, err
		}
	}

	r.Unique = d.Len()

	return r, nil
}

// Encode writes the unique tiles of src to w
func Encode(w io.Writer, src Source, cfg *Config) (*Result, error) {
	return NewEncoder(w, cfg).Encode(src)
}
