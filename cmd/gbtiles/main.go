package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/bodgit/gbtiles"
	"github.com/bodgit/gbtiles/prepare"
	"github.com/bodgit/gbtiles/tilemap"
	"github.com/bodgit/gbtiles/vram"
	pb "github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if c.Bool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func newConverter(c *cli.Context, logger logrus.FieldLogger) (*gbtiles.Converter, func(), error) {
	var cache *gbtiles.Cache
	if file := c.String("cache"); file != "" {
		var err error
		if cache, err = gbtiles.NewCache(file); err != nil {
			return nil, nil, err
		}
	}

	conv := gbtiles.New(cache, logger, vram.DefaultConfig())
	conv.Channel = c.Int("channel")

	return conv, func() {
		if cache != nil {
			cache.Close()
		}
	}, nil
}

func readTiles(file string) ([]vram.Tile, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return vram.Decode(f)
}

func readMap(file string) (*tilemap.Map, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	m := new(tilemap.Map)
	if err := m.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return m, nil
}

func writePNG(file string, m image.Image) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, m); err != nil {
		return err
	}
	return f.Close()
}

func main() {
	app := cli.NewApp()

	app.Name = "gbtiles"
	app.Usage = "Game Boy tile set conversion utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "cache",
			EnvVars: []string{"GBTILES_CACHE"},
			Usage:   "path to conversion cache database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	channelFlag := &cli.IntFlag{
		Name:  "channel",
		Value: 0,
		Usage: "pixel byte to sample, 0 blue, 1 green, 2 red",
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert a bitmap to a tile set",
			Description: "",
			ArgsUsage:   "INPUT OUTPUT",
			Flags: []cli.Flag{
				channelFlag,
				&cli.StringFlag{
					Name:  "map",
					Usage: "also write the tile map to `FILE`",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				conv, closer, err := newConverter(c, logger)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				if _, err := conv.ConvertFile(c.Args().Get(0), c.Args().Get(1), c.String("map")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Convert every bitmap in a directory tree",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				channelFlag,
				&cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "number of files to convert at once",
				},
				&cli.BoolFlag{
					Name:  "map",
					Usage: "also write a tile map next to each tile set",
				},
				&cli.BoolFlag{
					Name:  "progress",
					Usage: "show a progress bar",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				var fn gbtiles.ScanFunc
				if c.Bool("progress") {
					if !c.Bool("verbose") {
						logger.SetLevel(logrus.WarnLevel)
					}
					bar := pb.New(0)
					bar.Start()
					defer bar.Finish()
					fn = func(string, *vram.Result) {
						bar.Increment()
					}
				}

				conv, closer, err := newConverter(c, logger)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				if err := conv.Scan(c.Args().First(), c.Int("workers"), c.Bool("map"), fn); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "prepare",
			Usage:       "Reduce an image to four grey levels",
			Description: "",
			ArgsUsage:   "INPUT OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				in, err := os.Open(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer in.Close()

				m, _, err := image.Decode(in)
				if err != nil {
					return cli.Exit(err, 1)
				}

				out, err := os.Create(c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer out.Close()

				if err := prepare.Encode(out, m); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "render",
			Usage:       "Render a tile set as a PNG image",
			Description: "With a tile map the original image is rebuilt, otherwise the unique tiles are drawn as a sheet",
			ArgsUsage:   "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "map",
					Usage: "rebuild the image using the tile map in `FILE`",
				},
				&cli.IntFlag{
					Name:  "columns",
					Value: 16,
					Usage: "tiles per row of the sheet",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				tiles, err := readTiles(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}

				var m image.Image = vram.Sheet(tiles, c.Int("columns"))
				if file := c.String("map"); file != "" {
					tm, err := readMap(file)
					if err != nil {
						return cli.Exit(err, 1)
					}
					if m, err = vram.Reassemble(tiles, tm.Cols(), tm.Indices()); err != nil {
						return cli.Exit(fmt.Errorf("%s: %w", file, err), 1)
					}
				}

				if err := writePNG(c.Args().Get(1), m); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
