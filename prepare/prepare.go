/*
Package prepare reduces arbitrary artwork to the four exact grey levels
accepted by the tile encoder.
*/
package prepare

import (
	"image"
	"image/color"
	"io"
	"sort"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/bmp"
)

// Levels are the grey levels an image is reduced to, darkest first
var Levels = [4]uint8{0, 64, 128, 255}

type byLuminance []color.Color

func (p byLuminance) Len() int {
	return len(p)
}

func (p byLuminance) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}

func (p byLuminance) Less(i, j int) bool {
	return luminance(p[i]) < luminance(p[j])
}

func luminance(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}

func nearestLevel(y uint8) uint8 {
	best, bestDiff := Levels[0], 256
	for _, l := range Levels {
		d := int(y) - int(l)
		if d < 0 {
			d = -d
		}
		if d < bestDiff {
			best, bestDiff = l, d
		}
	}
	return best
}

// levelMap assigns a grey level to each palette entry. Entries are spread
// across the levels by brightness so that two colour art still ends up
// black and white.
func levelMap(p color.Palette) map[color.Color]uint8 {
	m := make(map[color.Color]uint8, len(p))

	var sorted byLuminance
	for _, c := range p {
		if _, ok := m[c]; !ok {
			m[c] = 0
			sorted = append(sorted, c)
		}
	}
	sort.Stable(sorted)

	if len(sorted) == 1 {
		m[sorted[0]] = nearestLevel(luminance(sorted[0]))
		return m
	}
	for i, c := range sorted {
		m[c] = Levels[i*(len(Levels)-1)/(len(sorted)-1)]
	}
	return m
}

// Image returns a copy of m using only the four grey levels, with the
// top-left corner at (0, 0).
func Image(m image.Image) *image.RGBA {
	b := m.Bounds()

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, len(Levels)), m)
	levels := levelMap(p)

	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			l := levels[p[p.Index(m.At(x, y))]]
			out.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{l, l, l, 0xff})
		}
	}
	return out
}

// Encode writes m reduced to four grey levels as a 24 bits per pixel
// Windows bitmap.
func Encode(w io.Writer, m image.Image) error {
	return bmp.Encode(w, Image(m))
}
