package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/voidshard/tilepack"
)

const desc = `Packs Tiled level documents into a flat binary of fixed size tile grids.

Each level contributes exactly one canonical grid (32x32 by default) of one byte tile codes taken
from it's "map" layer. Smaller levels are padded with 0, larger ones are cropped. Blocks are written
back to back in level order with no header, so a reader needs the grid size & level count to decode.`

// Globals are flags shared by every command
type Globals struct {
	Config  string `short:"c" help:"yaml config file (defaults are used for anything it doesn't set)"`
	Verbose bool   `short:"v" help:"log every step"`
}

var cli struct {
	Globals

	Pack   PackCmd   `cmd:"" default:"withargs" help:"pack level documents into a binary (default command)"`
	Import ImportCmd `cmd:"" help:"import level documents into a sqlite archive"`
	Dump   DumpCmd   `cmd:"" help:"print the tile codes of a packed binary"`
	Render RenderCmd `cmd:"" help:"render one level of a packed binary to png"`
}

// SourceFlags override where level documents come from
type SourceFlags struct {
	Count  int      `short:"n" help:"number of levels to expand --input over (from 1)"`
	Frames string   `short:"f" help:"level indices to expand --input over, eg. 1-11 or 1-5,8 (overrides --count)"`
	Input  string   `short:"i" help:"input template, eg. tmp/level-%d.json"`
	Level  []string `short:"l" help:"explicit level document (repeatable, overrides --input)"`
	Layer  string   `help:"name of the layer to extract"`
}

// PackCmd packs levels into a binary
type PackCmd struct {
	SourceFlags

	Output    string `short:"o" help:"where to write the packed binary. Overwritten on success only."`
	Size      int    `short:"s" help:"canonical grid side in tiles"`
	MaskTiles bool   `help:"keep the low byte of tile codes > 255 rather than failing"`
	Archive   string `short:"a" help:"pack from a sqlite archive rather than level documents"`
}

func (c *PackCmd) Run(g *Globals, logger *log.Logger) error {
	cfg, err := loadConfig(g, &c.SourceFlags)
	if err != nil {
		return err
	}
	if c.Output != "" {
		cfg.OutputPath = c.Output
	}
	if c.Size > 0 {
		cfg.CanonicalSize = c.Size
	}
	if c.MaskTiles {
		cfg.MaskTiles = true
	}

	var src tilepack.Source = tilepack.NewFileSource(cfg)
	if c.Archive != "" {
		if !fileExists(c.Archive) {
			return fmt.Errorf("archive not found: %s", c.Archive)
		}
		arc, err := tilepack.OpenArchive(c.Archive)
		if err != nil {
			return err
		}
		defer arc.Close()
		src = arc
	}

	_, err = tilepack.NewPacker(cfg, logger).Pack(src)
	return err
}

// ImportCmd fills an archive from level documents
type ImportCmd struct {
	SourceFlags

	Archive string `arg:"" help:"sqlite archive to write (created if needed)"`
}

func (c *ImportCmd) Run(g *Globals, logger *log.Logger) error {
	cfg, err := loadConfig(g, &c.SourceFlags)
	if err != nil {
		return err
	}

	arc, err := tilepack.OpenArchive(c.Archive)
	if err != nil {
		return err
	}
	defer arc.Close()

	n, err := arc.ImportFrom(tilepack.NewFileSource(cfg))
	if err != nil {
		return err
	}

	logger.Info("imported levels", "archive", arc.Filename(), "levels", n)
	return nil
}

// DumpCmd prints packed blocks as hex
type DumpCmd struct {
	Input string `arg:"" type:"existingfile" help:"packed binary"`
	Size  int    `short:"s" default:"32" help:"canonical grid side in tiles"`
}

func (c *DumpCmd) Run(g *Globals) error {
	grids, err := readGrids(c.Input, c.Size)
	if err != nil {
		return err
	}
	return dump(os.Stdout, grids)
}

// RenderCmd writes a png preview of a packed level
type RenderCmd struct {
	Input     string `arg:"" type:"existingfile" help:"packed binary"`
	Level     int    `arg:"" help:"level to render (from 1)"`
	Output    string `short:"o" help:"where to write the png. Defaults to input + level + .png"`
	Size      int    `short:"s" default:"32" help:"canonical grid side in tiles"`
	TilePx    int    `default:"8" help:"size of each tile in px"`
	Scale     int    `default:"1" help:"scale the final image by this"`
	NoLines   bool   `help:"don't draw grid lines"`
	Overwrite bool   `help:"overwrite the output if it exists"`
}

func (c *RenderCmd) Run(g *Globals, logger *log.Logger) error {
	grids, err := readGrids(c.Input, c.Size)
	if err != nil {
		return err
	}
	if c.Level < 1 || c.Level > len(grids) {
		return fmt.Errorf("level %d out of range, %s holds %d levels", c.Level, c.Input, len(grids))
	}

	if c.Output == "" {
		c.Output = fmt.Sprintf("%s.%d.png", c.Input, c.Level)
	}
	if fileExists(c.Output) && !c.Overwrite {
		return fmt.Errorf("%s exists, pass --overwrite to replace it", c.Output)
	}

	img := tilepack.Render(grids[c.Level-1], &tilepack.RenderOptions{
		TilePx:    c.TilePx,
		GridLines: !c.NoLines,
		Scale:     c.Scale,
	})
	if err := tilepack.SavePNG(c.Output, img); err != nil {
		return err
	}

	logger.Info("wrote preview", "path", c.Output, "index", c.Level)
	return nil
}

// loadConfig reads the config file (if any) & applies command line overrides
func loadConfig(g *Globals, f *SourceFlags) (*tilepack.Config, error) {
	cfg := tilepack.DefaultConfig()
	if g.Config != "" {
		var err error
		cfg, err = tilepack.LoadConfig(g.Config)
		if err != nil {
			return nil, err
		}
	}

	if f.Count > 0 {
		cfg.LevelCount = f.Count
	}
	if f.Frames != "" {
		cfg.Frames = f.Frames
	}
	if f.Input != "" {
		cfg.InputPathTemplate = f.Input
	}
	if len(f.Level) > 0 {
		cfg.Levels = f.Level
	}
	if f.Layer != "" {
		cfg.LayerName = f.Layer
	}

	return cfg, cfg.Validate()
}

// readGrids decodes a packed binary from disk
func readGrids(fname string, size int) ([]*tilepack.Grid, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tilepack.ReadGrids(f, size)
}

// dump writes each grid as rows of hex tile codes
func dump(w io.Writer, grids []*tilepack.Grid) error {
	for i, g := range grids {
		if _, err := fmt.Fprintf(w, "level %d\n", i+1); err != nil {
			return err
		}
		for row := 0; row < g.Size(); row++ {
			codes := make([]string, g.Size())
			for col := range codes {
				codes[col] = fmt.Sprintf("%02x", g.At(row, col))
			}
			if _, err := fmt.Fprintln(w, strings.Join(codes, " ")); err != nil {
				return err
			}
		}
	}
	return nil
}

// fileExists checks if file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("tilepack"),
		kong.Description(desc),
		kong.UsageOnError(),
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "tilepack",
	})
	if cli.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	err := ctx.Run(&cli.Globals, logger)
	if err != nil {
		logger.Error("run failed", "stage", tilepack.Stage(err), "err", err)
		os.Exit(1)
	}
}
