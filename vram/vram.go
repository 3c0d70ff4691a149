/*
Package vram implements an encoder for the Game Boy 2 bits per pixel tile
format.

An image is split into 8 by 8 tiles, each pixel is reduced to one of four
shades and every tile is packed into 16 bytes; for each of the eight rows a
byte holding the low bit of every pixel is followed by a byte holding the
high bit, the leftmost pixel in the most significant bit. Tiles with the same
content are written only once, in the order they are first found walking the
image left to right, top to bottom.
*/
package vram

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"hash"
)

const (
	tileWidth  = 8
	tileHeight = tileWidth
	tilePixels = tileWidth * tileHeight

	// TileSize is the size in bytes of one packed tile
	TileSize = tileHeight * 2
)

var (
	// ErrInvalidDimensions is returned when the image width or height is
	// not a multiple of the tile size
	ErrInvalidDimensions = errors.New("vram: image dimensions must be a multiple of 8")
	// ErrMalformedInput is returned when pixel data is missing for part
	// of the image
	ErrMalformedInput = errors.New("vram: malformed input")
	// ErrUnsupportedTileSize is returned for any tile size other than 8
	ErrUnsupportedTileSize = errors.New("vram: unsupported tile size")
	// ErrTruncated is returned when decoding a tile set that isn't a
	// whole number of tiles
	ErrTruncated = errors.New("vram: truncated tile data")
)

// Shade is a 2-bit pixel value, 0 is the lightest and 3 the darkest
type Shade uint8

// Source is the pixel data of an image stored bottom row first, as found in
// a Windows bitmap.
type Source interface {
	Width() int
	Height() int
	// ChannelAt returns one color channel of the pixel at x, y where y
	// counts up from the bottom row.
	ChannelAt(x, y int) (uint8, error)
}

// Config holds the parameters of a conversion
type Config struct {
	// TileSize is the tile width and height in pixels, zero means 8
	TileSize int
	// Thresholds holds, per shade, the exact sample value that selects
	// it. Samples matching nothing become shade 0 so the first entry is
	// never consulted.
	Thresholds [4]uint8
	// Fingerprint creates the hash used to tell tiles apart
	Fingerprint func() hash.Hash
}

// DefaultThresholds selects shades 3, 2 and 1 for black, dark grey and light
// grey
var DefaultThresholds = [4]uint8{255, 128, 64, 0}

// DefaultConfig returns the configuration matching the four grey levels
// black, dark grey, light grey and white.
func DefaultConfig() *Config {
	return &Config{
		TileSize:    tileWidth,
		Thresholds:  DefaultThresholds,
		Fingerprint: sha1.New,
	}
}

// withDefaults returns a copy of c with every zero field replaced by its
// default. A zero Thresholds is replaced as a whole.
func (c *Config) withDefaults() *Config {
	d := *c
	if d.TileSize == 0 {
		d.TileSize = tileWidth
	}
	if d.Thresholds == ([4]uint8{}) {
		d.Thresholds = DefaultThresholds
	}
	if d.Fingerprint == nil {
		d.Fingerprint = sha1.New
	}
	return &d
}

// String describes every setting that affects the output, with defaults
// applied
func (c *Config) String() string {
	d := c.withDefaults()
	return fmt.Sprintf("tile=%d thresholds=%v fingerprint=%T", d.TileSize, d.Thresholds, d.Fingerprint())
}

func (c *Config) validate() error {
	if c.TileSize != 0 && c.TileSize != tileWidth {
		return ErrUnsupportedTileSize
	}
	return nil
}

func (c *Config) newHash() hash.Hash {
	if c.Fingerprint == nil {
		return sha1.New()
	}
	return c.Fingerprint()
}

// Quantize maps a sample to a shade. Only exact matches count, there is no
// nearest match. A zero Thresholds means DefaultThresholds.
func (c *Config) Quantize(sample uint8) Shade {
	t := c.Thresholds
	if t == ([4]uint8{}) {
		t = DefaultThresholds
	}
	for s := len(t) - 1; s > 0; s-- {
		if sample == t[s] {
			return Shade(s)
		}
	}
	return 0
}
