package bitmap

import (
	"fmt"
	"image"

	"github.com/bodgit/gbtiles/vram"
)

type imageSource struct {
	m       image.Image
	channel int
}

// FromImage adapts a decoded image so it can be read bottom row first like
// a bitmap. The channel selects blue, green or red as 0, 1 or 2 matching
// the byte order of a bitmap pixel.
func FromImage(m image.Image, channel int) vram.Source {
	return &imageSource{
		m:       m,
		channel: channel,
	}
}

func (s *imageSource) Width() int {
	return s.m.Bounds().Dx()
}

func (s *imageSource) Height() int {
	return s.m.Bounds().Dy()
}

func (s *imageSource) ChannelAt(x, y int) (uint8, error) {
	b := s.m.Bounds()
	if x < 0 || x >= b.Dx() || y < 0 || y >= b.Dy() {
		return 0, fmt.Errorf("%w: pixel %d,%d outside %dx%d image", vram.ErrMalformedInput, x, y, b.Dx(), b.Dy())
	}

	r, g, bl, _ := s.m.At(b.Min.X+x, b.Max.Y-1-y).RGBA()
	switch s.channel {
	case 1:
		return uint8(g >> 8), nil
	case 2:
		return uint8(r >> 8), nil
	default:
		return uint8(bl >> 8), nil
	}
}
