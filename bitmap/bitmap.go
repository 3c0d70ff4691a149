/*
Package bitmap implements a minimal Windows bitmap reader exposing the raw
pixel data in storage order, bottom row first.

Only uncompressed 24 bits per pixel images with a 40 byte BITMAPINFOHEADER
are supported, which is what most paint programs write for truecolor art.
*/
package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/gbtiles/vram"
)

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	headerSize     = fileHeaderSize + infoHeaderSize
	bitsPerPixel   = 24
	bytesPerPixel  = bitsPerPixel >> 3
	biRGB          = 0
)

var (
	// ErrNotBMP is returned when the input lacks the BM signature
	ErrNotBMP = errors.New("bitmap: not a Windows bitmap")
	// ErrUnsupported is returned for valid bitmaps this package can't read
	ErrUnsupported = errors.New("bitmap: unsupported bitmap")
)

type fileHeader struct {
	Signature [2]byte
	FileSize  uint32
	Reserved  uint32
	Offset    uint32
}

type infoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	ImageSize     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ColorsUsed    uint32
	ColorsImp     uint32
}

// Bitmap is a decoded bitmap. It implements vram.Source.
type Bitmap struct {
	width, height int
	stride        int
	channel       int
	pix           []byte
}

// Width returns the image width in pixels
func (b *Bitmap) Width() int {
	return b.width
}

// Height returns the image height in pixels
func (b *Bitmap) Height() int {
	return b.height
}

// ChannelAt returns the configured channel of the pixel at x, y with y
// counting up from the bottom row.
func (b *Bitmap) ChannelAt(x, y int) (uint8, error) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0, fmt.Errorf("%w: pixel %d,%d outside %dx%d image", vram.ErrMalformedInput, x, y, b.width, b.height)
	}
	i := y*b.stride + x*bytesPerPixel + b.channel
	if i >= len(b.pix) {
		return 0, fmt.Errorf("%w: pixel %d,%d beyond end of pixel data", vram.ErrMalformedInput, x, y)
	}
	return b.pix[i], nil
}

func readHeaders(r io.Reader) (fileHeader, infoHeader, error) {
	var fh fileHeader
	var ih infoHeader

	if err := binary.Read(r, binary.LittleEndian, &fh); err != nil {
		return fh, ih, ErrNotBMP
	}
	if fh.Signature != [2]byte{'B', 'M'} {
		return fh, ih, ErrNotBMP
	}

	if err := binary.Read(r, binary.LittleEndian, &ih); err != nil {
		return fh, ih, fmt.Errorf("%w: %v", vram.ErrMalformedInput, err)
	}

	switch {
	case ih.Size != infoHeaderSize:
		return fh, ih, fmt.Errorf("%w: header size %d", ErrUnsupported, ih.Size)
	case ih.BitCount != bitsPerPixel:
		return fh, ih, fmt.Errorf("%w: %d bits per pixel", ErrUnsupported, ih.BitCount)
	case ih.Compression != biRGB:
		return fh, ih, fmt.Errorf("%w: compression method %d", ErrUnsupported, ih.Compression)
	case ih.Width < 0 || ih.Height < 0:
		return fh, ih, fmt.Errorf("%w: dimensions %dx%d", ErrUnsupported, ih.Width, ih.Height)
	case fh.Offset < headerSize:
		return fh, ih, fmt.Errorf("%w: pixel data offset %d", vram.ErrMalformedInput, fh.Offset)
	}

	return fh, ih, nil
}

// DecodeConfig returns the dimensions of a bitmap without reading the pixel
// data.
func DecodeConfig(r io.Reader) (width, height int, err error) {
	_, ih, err := readHeaders(r)
	if err != nil {
		return 0, 0, err
	}
	return int(ih.Width), int(ih.Height), nil
}

// Decode reads a bitmap from r. The channel selects which byte of each
// pixel triple is sampled, 0 being blue.
func Decode(r io.Reader, channel int) (*Bitmap, error) {
	if channel < 0 || channel >= bytesPerPixel {
		return nil, fmt.Errorf("bitmap: invalid channel %d", channel)
	}

	fh, ih, err := readHeaders(r)
	if err != nil {
		return nil, err
	}

	// Skip anything between the headers and the pixel data
	if _, err := io.CopyN(io.Discard, r, int64(fh.Offset-headerSize)); err != nil {
		return nil, fmt.Errorf("%w: %v", vram.ErrMalformedInput, err)
	}

	b := &Bitmap{
		width:   int(ih.Width),
		height:  int(ih.Height),
		stride:  (int(ih.Width)*bytesPerPixel + 3) &^ 3,
		channel: channel,
	}

	// A short read leaves the missing pixels to be reported by ChannelAt
	buf := new(bytes.Buffer)
	if _, err := io.CopyN(buf, r, int64(b.stride)*int64(b.height)); err != nil && err != io.EOF {
		return nil, err
	}
	b.pix = buf.Bytes()

	return b, nil
}
