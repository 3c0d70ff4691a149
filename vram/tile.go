package vram

// Tile is one packed 8 by 8 tile
type Tile [TileSize]byte

// PackRow builds the low and high bit-plane bytes of one row of eight
// shades, the first shade in the most significant bit.
func PackRow(row [tileWidth]Shade) (lo, hi byte) {
	for x, s := range row {
		bit := uint(tileWidth - 1 - x)
		lo |= byte(s&1) << bit
		hi |= byte(s>>1&1) << bit
	}
	return
}

// Pack builds a tile from 64 shades in raster order
func Pack(shades [tilePixels]Shade) Tile {
	var t Tile
	for y := 0; y < tileHeight; y++ {
		var row [tileWidth]Shade
		copy(row[:], shades[y*tileWidth:(y+1)*tileWidth])
		t[y<<1], t[y<<1+1] = PackRow(row)
	}
	return t
}

// Shade returns the shade of the pixel at x, y within the tile
func (t Tile) Shade(x, y int) Shade {
	bit := uint(tileWidth - 1 - x)
	lo := t[y<<1] >> bit & 1
	hi := t[y<<1+1] >> bit & 1
	return Shade(hi<<1 | lo)
}
