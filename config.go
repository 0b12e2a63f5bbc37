package tilepack

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/go-yaml/yaml"
	"github.com/justinfx/gofileseq"
	"github.com/mitchellh/go-homedir"
)

const (
	// maxCanonicalSize caps the block side so a typo can't ask for gigabytes
	maxCanonicalSize = 4096
)

// Config includes settings for a packing run
type Config struct {
	// number of levels to expand a printf style InputPathTemplate over (from 1)
	LevelCount int `yaml:"level_count"`

	// side of the canonical grid, in tiles
	CanonicalSize int `yaml:"canonical_size"`

	// name of the tile layer we extract from each document
	LayerName string `yaml:"layer_name"`

	// printf style path of each level, given it's index eg. "dir/level-%d.json"
	InputPathTemplate string `yaml:"input"`

	// frame range of level indices eg. "1-11" or "1-5,8". Overrides LevelCount.
	Frames string `yaml:"frames"`

	// where the packed binary is written
	OutputPath string `yaml:"output"`

	// explicit list of level documents, if set the template is ignored
	Levels []string `yaml:"levels"`

	// mask tile codes to a byte rather than failing on codes > 255
	MaskTiles bool `yaml:"mask_tiles"`
}

// LevelRef identifies a single level document.
type LevelRef struct {
	Index int
	Path  string
}

// DefaultConfig returns 11 levels read from tmp/level-N.json, packed as 32x32
// grids of their "map" layer into map_data.bin.
func DefaultConfig() *Config {
	return &Config{
		LevelCount:        11,
		CanonicalSize:     32,
		LayerName:         "map",
		InputPathTemplate: "tmp/level-%d.json",
		OutputPath:        "map_data.bin",
	}
}

// LoadConfig reads a yaml file over the default config.
func LoadConfig(fname string) (*Config, error) {
	cfg := DefaultConfig()

	fname, err := homedir.Expand(fname)
	if err != nil {
		return nil, err
	}

	data, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	err = yaml.UnmarshalStrict(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", fname, err)
	}

	return cfg, cfg.Validate()
}

// Validate returns an error if the config can't describe a run.
func (c *Config) Validate() error {
	if c.CanonicalSize <= 0 || c.CanonicalSize > maxCanonicalSize {
		return fmt.Errorf("canonical size %d must be in (0, %d]", c.CanonicalSize, maxCanonicalSize)
	}
	if c.LayerName == "" {
		return fmt.Errorf("layer name must be set")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path must be set")
	}
	if len(c.Levels) > 0 {
		return nil
	}
	if c.InputPathTemplate == "" {
		return fmt.Errorf("one of input or levels must be set")
	}
	if !strings.Contains(c.InputPathTemplate, "%") {
		return fmt.Errorf("input %q has no %%d for the level index", c.InputPathTemplate)
	}
	if c.Frames == "" && c.LevelCount <= 0 {
		return fmt.Errorf("level count %d must be positive", c.LevelCount)
	}
	return nil
}

// BlockSize is the number of bytes written per level.
func (c *Config) BlockSize() int {
	return c.CanonicalSize * c.CanonicalSize
}

// Sources returns the ordered level documents this config describes.
//
// An explicit Levels list wins. Otherwise the input template is expanded for
// each index in Frames, or 1..LevelCount if no frames are set.
func (c *Config) Sources() ([]LevelRef, error) {
	refs := []LevelRef{}

	if len(c.Levels) > 0 {
		for i, p := range c.Levels {
			path, err := homedir.Expand(p)
			if err != nil {
				return nil, err
			}
			refs = append(refs, LevelRef{Index: i + 1, Path: path})
		}
		return refs, nil
	}

	tmpl, err := homedir.Expand(c.InputPathTemplate)
	if err != nil {
		return nil, err
	}

	indices, err := c.indices()
	if err != nil {
		return nil, err
	}

	for _, i := range indices {
		refs = append(refs, LevelRef{Index: i, Path: fmt.Sprintf(tmpl, i)})
	}
	sortRefs(refs)

	return refs, nil
}

// indices returns the level indices to expand the input template over
func (c *Config) indices() ([]int, error) {
	if c.Frames == "" {
		if c.LevelCount <= 0 {
			return nil, fmt.Errorf("level count %d must be positive", c.LevelCount)
		}
		indices := make([]int, c.LevelCount)
		for i := range indices {
			indices[i] = i + 1
		}
		return indices, nil
	}

	frames, err := fileseq.NewFrameSet(c.Frames)
	if err != nil {
		return nil, fmt.Errorf("frames %q: %w", c.Frames, err)
	}
	return frames.Frames(), nil
}
