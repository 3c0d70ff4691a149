package vram

import (
	"errors"
	"image"
	"image/color"
	"io"
)

// Palette maps each shade to the grey level it stands for
var Palette = color.Palette{
	color.Gray{0xff},
	color.Gray{0x80},
	color.Gray{0x40},
	color.Gray{0x00},
}

// Decode reads a tile set previously written by Encode
func Decode(r io.Reader) ([]Tile, error) {
	var tiles []Tile
	for {
		var t Tile
		if _, err := io.ReadFull(r, t[:]); err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return tiles, nil
			case errors.Is(err, io.ErrUnexpectedEOF):
				return nil, ErrTruncated
			default:
				return nil, err
			}
		}
		tiles = append(tiles, t)
	}
}

func drawTile(m *image.Paletted, t Tile, c Coord) {
	for y := 0; y < tileHeight; y++ {
		for x := 0; x < tileWidth; x++ {
			m.SetColorIndex(c.Col*tileWidth+x, c.Row*tileHeight+y, uint8(t.Shade(x, y)))
		}
	}
}

// Sheet draws the tiles side by side, cols tiles to a row
func Sheet(tiles []Tile, cols int) *image.Paletted {
	if cols <= 0 {
		cols = 16
	}
	if len(tiles) < cols {
		cols = len(tiles)
	}
	rows := 0
	if cols > 0 {
		rows = (len(tiles) + cols - 1) / cols
	}

	m := image.NewPaletted(image.Rect(0, 0, cols*tileWidth, rows*tileHeight), Palette)
	w := Walker{Cols: cols, Rows: rows}
	for i, t := range tiles {
		drawTile(m, t, w.At(i))
	}
	return m
}

// Reassemble rebuilds an image cols tiles wide from a tile set and the index
// of the unique tile used at each position.
func Reassemble(tiles []Tile, cols int, index []int) (*image.Paletted, error) {
	if cols < 0 || (cols == 0 && len(index) != 0) || (cols > 0 && len(index)%cols != 0) {
		return nil, ErrInvalidDimensions
	}

	var w Walker
	if cols > 0 {
		w = Walker{Cols: cols, Rows: len(index) / cols}
	}
	m := image.NewPaletted(image.Rect(0, 0, w.Cols*tileWidth, w.Rows*tileHeight), Palette)
	for i, n := range index {
		if n < 0 || n >= len(tiles) {
			return nil, ErrMalformedInput
		}
		drawTile(m, tiles[n], w.At(i))
	}
	return m, nil
}
