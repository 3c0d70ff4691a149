package vram

// Coord is the position of a tile counted in tiles from the top-left corner
type Coord struct {
	Col, Row int
}

// Pixel returns the storage position of pixel p of the tile, where p counts
// left to right, top to bottom within the tile. The row is flipped so that
// y counts up from the bottom of an image of the given height.
func (c Coord) Pixel(p, height int) (int, int) {
	x := c.Col*tileWidth + p%tileWidth
	y := c.Row*tileHeight + p/tileWidth
	return x, height - 1 - y
}

// Walker enumerates the tiles of an image in row-major order
type Walker struct {
	Cols, Rows int
}

// NewWalker returns a Walker for an image of the given size in pixels. An
// image with no pixels has no tiles.
func NewWalker(width, height int) (Walker, error) {
	if width < 0 || height < 0 || width%tileWidth != 0 || height%tileHeight != 0 {
		return Walker{}, ErrInvalidDimensions
	}
	return Walker{
		Cols: width / tileWidth,
		Rows: height / tileHeight,
	}, nil
}

// Len returns the total number of tiles
func (w Walker) Len() int {
	return w.Cols * w.Rows
}

// At returns the coordinate of the i-th tile
func (w Walker) At(i int) Coord {
	return Coord{
		Col: i % w.Cols,
		Row: i / w.Cols,
	}
}
