/*
Package gbtiles converts bitmaps into deduplicated Game Boy tile sets,
optionally caching the results of previous conversions.
*/
package gbtiles

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/bodgit/gbtiles/bitmap"
	"github.com/bodgit/gbtiles/tilemap"
	"github.com/bodgit/gbtiles/vram"
	"github.com/sirupsen/logrus"
)

// Converter converts image files into tile sets
type Converter struct {
	cache  *Cache
	logger logrus.FieldLogger
	cfg    *vram.Config

	// Channel selects the byte of each pixel that is sampled, 0 is blue
	Channel int
}

// New returns a Converter. The cache may be nil to disable caching and a
// nil cfg means vram.DefaultConfig.
func New(cache *Cache, logger logrus.FieldLogger, cfg *vram.Config) *Converter {
	if cfg == nil {
		cfg = vram.DefaultConfig()
	}
	return &Converter{
		cache:  cache,
		logger: logger,
		cfg:    cfg,
	}
}

func (c *Converter) source(b []byte) (vram.Source, error) {
	src, err := bitmap.Decode(bytes.NewReader(b), c.Channel)
	switch {
	case err == nil:
		return src, nil
	case !errors.Is(err, bitmap.ErrNotBMP):
		return nil, err
	}

	// Fall back to anything registered with the image package
	m, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return bitmap.FromImage(m, c.Channel), nil
}

// convert runs the encoder over b. The tile map only fails the conversion
// when withMap is set, otherwise a map that can't be stored is left out.
func (c *Converter) convert(b []byte, withMap bool) (*entry, *vram.Result, error) {
	src, err := c.source(b)
	if err != nil {
		return nil, nil, err
	}

	tiles := new(bytes.Buffer)
	r, err := vram.Encode(tiles, src, c.cfg)
	if err != nil {
		return nil, nil, err
	}

	e := &entry{
		tiles:  tiles.Bytes(),
		cols:   r.Cols,
		rows:   r.Rows,
		unique: r.Unique,
	}

	m, err := tilemap.New(r.Cols, r.Rows, r.Map)
	if err == nil {
		e.index, err = m.MarshalBinary()
	}
	if err != nil {
		if withMap {
			return nil, nil, err
		}
		c.logger.WithError(err).Debug("Not keeping tile map")
		e.index = nil
	}

	return e, r, nil
}

// cached returns the stored conversion, or nothing if there isn't one or it
// has no tile map and withMap is set.
func (c *Converter) cached(sha string, withMap bool) (*entry, *vram.Result, error) {
	if c.cache == nil {
		return nil, nil, nil
	}

	e, err := c.cache.get(sha)
	if err != nil || e == nil {
		return nil, nil, err
	}

	r := &vram.Result{
		Cols:   e.cols,
		Rows:   e.rows,
		Tiles:  e.cols * e.rows,
		Unique: e.unique,
	}

	if len(e.index) == 0 {
		if withMap {
			return nil, nil, nil
		}
		return e, r, nil
	}

	var m tilemap.Map
	if err := m.UnmarshalBinary(e.index); err != nil {
		return nil, nil, err
	}
	r.Map = m.Indices()

	return e, r, nil
}

func writeFile(file string, b []byte) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = f.Write(b); err != nil {
		return err
	}
	return f.Close()
}

// ConvertFile converts the image in file in and writes the unique tiles to
// out. If mapOut isn't empty the tile map is written there as well and the
// conversion fails if the map can't hold the image. Nothing is written if
// the conversion fails.
func (c *Converter) ConvertFile(in, out, mapOut string) (*vram.Result, error) {
	f, err := os.Open(in)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha1.New()
	b, err := io.ReadAll(io.TeeReader(f, h))
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(h, "channel=%d %s", c.Channel, c.cfg)
	sha := fmt.Sprintf("%X", h.Sum(nil))

	logger := c.logger.WithField("file", in)

	e, r, err := c.cached(sha, mapOut != "")
	if err != nil {
		return nil, err
	}
	if e != nil {
		logger.Debug("Using cached conversion")
	} else {
		if e, r, err = c.convert(b, mapOut != ""); err != nil {
			return nil, fmt.Errorf("%s: %w", in, err)
		}
		if c.cache != nil {
			if err := c.cache.put(sha, e); err != nil {
				return nil, err
			}
		}
	}

	if err := writeFile(out, e.tiles); err != nil {
		return nil, err
	}
	if mapOut != "" {
		if err := writeFile(mapOut, e.index); err != nil {
			return nil, err
		}
	}

	logger.WithField("tiles", r.Tiles).Infof("Unique tiles: %d", r.Unique)

	return r, nil
}
