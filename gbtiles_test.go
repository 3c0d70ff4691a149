package gbtiles

import (
	"bytes"
	"crypto/md5"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/bodgit/gbtiles/tilemap"
	"github.com/bodgit/gbtiles/vram"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func quadrants(levels [2][2]uint8) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := levels[y/8][x/8]
			m.SetRGBA(x, y, color.RGBA{v, v, v, 0xff})
		}
	}
	return m
}

func blank(width, height int) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(m.Pix); i += 4 {
		m.Pix[i] = 0xff
	}
	return m
}

func writeImage(t *testing.T, file string, m image.Image) {
	f, err := os.Create(file)
	require.Nil(t, err)
	defer f.Close()

	if filepath.Ext(file) == ".png" {
		require.Nil(t, png.Encode(f, m))
	} else {
		require.Nil(t, bmp.Encode(f, m))
	}
}

func newTestConverter(t *testing.T, cache *Cache) (*Converter, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(cache, logger, nil), hook
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()

	for _, ext := range []string{".bmp", ".png"} {
		t.Run(ext, func(t *testing.T) {
			in := filepath.Join(dir, "quadrants"+ext)
			out := filepath.Join(dir, "quadrants"+ext+Ext)
			mapOut := filepath.Join(dir, "quadrants"+ext+tilemap.Ext)

			writeImage(t, in, quadrants([2][2]uint8{{0, 64}, {0, 255}}))

			c, hook := newTestConverter(t, nil)
			r, err := c.ConvertFile(in, out, mapOut)
			require.Nil(t, err)
			assert.Equal(t, 4, r.Tiles)
			assert.Equal(t, 2, r.Cols)
			assert.Equal(t, 2, r.Rows)
			assert.Equal(t, 3, r.Unique)
			assert.Equal(t, []int{0, 1, 0, 2}, r.Map)

			b, err := os.ReadFile(out)
			require.Nil(t, err)

			var expected []byte
			expected = append(expected, bytes.Repeat([]byte{0xff, 0xff}, 8)...)
			expected = append(expected, bytes.Repeat([]byte{0x00, 0xff}, 8)...)
			expected = append(expected, bytes.Repeat([]byte{0x00, 0x00}, 8)...)
			assert.Equal(t, expected, b)

			b, err = os.ReadFile(mapOut)
			require.Nil(t, err)
			var m tilemap.Map
			require.Nil(t, m.UnmarshalBinary(b))
			assert.Equal(t, 2, m.Cols())
			assert.Equal(t, r.Map, m.Indices())

			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, "Unique tiles: 3", hook.LastEntry().Message)
			assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
		})
	}
}

func TestConvertFileInvalidDimensions(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "odd.png")
	out := filepath.Join(dir, "odd.bin")

	writeImage(t, in, blank(12, 8))

	c, _ := newTestConverter(t, nil)
	_, err := c.ConvertFile(in, out, "")
	assert.True(t, errors.Is(err, vram.ErrInvalidDimensions))

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestConvertFileCache(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bmp")
	out1 := filepath.Join(dir, "out1.bin")
	out2 := filepath.Join(dir, "out2.bin")

	writeImage(t, in, quadrants([2][2]uint8{{0, 128}, {128, 0}}))

	cache, err := NewCache(filepath.Join(dir, "cache.db"))
	require.Nil(t, err)
	defer cache.Close()

	c, hook := newTestConverter(t, cache)

	r1, err := c.ConvertFile(in, out1, "")
	require.Nil(t, err)
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, "Using cached conversion", e.Message)
	}
	hook.Reset()

	r2, err := c.ConvertFile(in, out2, "")
	require.Nil(t, err)
	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, "Using cached conversion", hook.AllEntries()[0].Message)

	assert.Equal(t, r1, r2)
	assert.Equal(t, []int{0, 1, 1, 0}, r2.Map)

	b1, err := os.ReadFile(out1)
	require.Nil(t, err)
	b2, err := os.ReadFile(out2)
	require.Nil(t, err)
	assert.Equal(t, b1, b2)

	// A different channel is a different conversion
	c.Channel = 2
	hook.Reset()
	_, err = c.ConvertFile(in, out2, "")
	require.Nil(t, err)
	require.Len(t, hook.AllEntries(), 1)

	require.Nil(t, cache.Purge())
	e, err := cache.get("missing")
	assert.Nil(t, err)
	assert.Nil(t, e)
}

// distinctTiles returns an image cols by rows tiles where every tile draws
// its own index in black and white, one bit per pixel.
func distinctTiles(cols, rows int) *image.RGBA {
	m := blank(cols*8, rows*8)
	for y := 0; y < rows*8; y++ {
		for x := 0; x < cols*8; x++ {
			i := (y/8)*cols + x/8
			p := (y%8)*8 + x%8
			v := uint8(0xff)
			if i>>uint(p)&1 == 1 {
				v = 0
			}
			o := m.PixOffset(x, y)
			m.Pix[o], m.Pix[o+1], m.Pix[o+2] = v, v, v
		}
	}
	return m
}

func TestConvertFileManyTiles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large image in short mode")
	}

	const cols, rows = 257, 256

	dir := t.TempDir()
	in := filepath.Join(dir, "big.bmp")
	out := filepath.Join(dir, "big.bin")
	mapOut := filepath.Join(dir, "big.map")

	writeImage(t, in, distinctTiles(cols, rows))

	cache, err := NewCache(filepath.Join(dir, "cache.db"))
	require.Nil(t, err)
	defer cache.Close()

	c, _ := newTestConverter(t, cache)

	r, err := c.ConvertFile(in, out, "")
	require.Nil(t, err)
	assert.Equal(t, cols*rows, r.Tiles)
	assert.Equal(t, cols*rows, r.Unique)

	info, err := os.Stat(out)
	require.Nil(t, err)
	assert.Equal(t, int64(cols*rows*vram.TileSize), info.Size())

	// The cached conversion has no map so asking for one converts again,
	// which can't fit the indices
	_, err = c.ConvertFile(in, out, mapOut)
	assert.NotNil(t, err)
	_, err = os.Stat(mapOut)
	assert.True(t, os.IsNotExist(err))

	// Without a map the cached conversion is still used
	r, err = c.ConvertFile(in, out, "")
	require.Nil(t, err)
	assert.Equal(t, cols*rows, r.Unique)
	assert.Nil(t, r.Map)
}

func TestConvertFileNoTiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "empty.bmp")
	out := filepath.Join(dir, "empty.bin")
	mapOut := filepath.Join(dir, "empty.map")

	writeImage(t, in, blank(16, 0))

	c, hook := newTestConverter(t, nil)
	r, err := c.ConvertFile(in, out, mapOut)
	require.Nil(t, err)
	assert.Equal(t, 0, r.Unique)
	assert.Equal(t, "Unique tiles: 0", hook.LastEntry().Message)

	b, err := os.ReadFile(out)
	require.Nil(t, err)
	assert.Len(t, b, 0)

	b, err = os.ReadFile(mapOut)
	require.Nil(t, err)
	assert.Equal(t, []byte{0x02, 0x00, 0x00, 0x00}, b)
}

func TestConvertFileCacheConfig(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bmp")
	out := filepath.Join(dir, "out.bin")

	writeImage(t, in, quadrants([2][2]uint8{{0, 64}, {128, 255}}))

	cache, err := NewCache(filepath.Join(dir, "cache.db"))
	require.Nil(t, err)
	defer cache.Close()

	c, _ := newTestConverter(t, cache)
	_, err = c.ConvertFile(in, out, "")
	require.Nil(t, err)

	cfg := vram.DefaultConfig()
	cfg.Fingerprint = md5.New

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	c = New(cache, logger, cfg)

	r, err := c.ConvertFile(in, out, "")
	require.Nil(t, err)
	assert.Equal(t, 4, r.Unique)
	require.Len(t, hook.AllEntries(), 1)
	assert.NotEqual(t, "Using cached conversion", hook.AllEntries()[0].Message)

	// Spelling out the defaults is the same conversion
	c = New(cache, logger, &vram.Config{})
	hook.Reset()
	_, err = c.ConvertFile(in, out, "")
	require.Nil(t, err)
	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, "Using cached conversion", hook.AllEntries()[0].Message)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	require.Nil(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.Nil(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0755))

	files := []string{
		filepath.Join(dir, "a.bmp"),
		filepath.Join(dir, "sub", "b.BMP"),
		filepath.Join(dir, ".hidden", "c.bmp"),
		filepath.Join(dir, "d.png"),
	}
	for _, file := range files {
		writeImage(t, file, quadrants([2][2]uint8{{0, 0}, {0, 0}}))
	}

	c, _ := newTestConverter(t, nil)

	var mu sync.Mutex
	var seen []string
	err := c.Scan(dir, 3, true, func(file string, r *vram.Result) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, file)
		assert.Equal(t, 1, r.Unique)
	})
	require.Nil(t, err)

	sort.Strings(seen)
	assert.Equal(t, []string{files[0], files[1]}, seen)

	for _, file := range []string{"a.bin", "a.map", filepath.Join("sub", "b.bin"), filepath.Join("sub", "b.map")} {
		_, err := os.Stat(filepath.Join(dir, file))
		assert.Nil(t, err, file)
	}
	for _, file := range []string{filepath.Join(".hidden", "c.bin"), "d.bin"} {
		_, err := os.Stat(filepath.Join(dir, file))
		assert.True(t, os.IsNotExist(err), file)
	}
}

func TestScanError(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "odd.bmp"), blank(8, 12))

	c, _ := newTestConverter(t, nil)
	err := c.Scan(dir, 2, false, nil)
	assert.True(t, errors.Is(err, vram.ErrInvalidDimensions))
}
