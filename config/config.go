// Package config holds the settings shared by the viewer and commgif.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/commscreen/anim"
)

var ErrInvalid = errors.New("config: invalid")

// Scaling selects how the raster is placed on screen.
type Scaling int

const (
	// ScaleCenter draws the raster unscaled in the middle of the screen.
	ScaleCenter Scaling = iota
	// ScaleFitWidth stretches the raster to the screen width.
	ScaleFitWidth
	// ScaleFillHeight scales the raster to the screen height, cropping the sides.
	ScaleFillHeight
)

var scalingNames = map[string]Scaling{
	"center": ScaleCenter,
	"width":  ScaleFitWidth,
	"height": ScaleFillHeight,
}

func (s Scaling) String() string {
	for name, v := range scalingNames {
		if v == s {
			return name
		}
	}
	return strconv.Itoa(int(s))
}

// ParseScaling accepts a mode number or name.
func ParseScaling(s string) (Scaling, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if v, ok := scalingNames[s]; ok {
		return v, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(ScaleCenter) || n > int(ScaleFillHeight) {
		return 0, fmt.Errorf("config: scaling %q: %w", s, ErrInvalid)
	}
	return Scaling(n), nil
}

func (s *Scaling) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: scaling must be a scalar", value.Line)
	}
	v, err := ParseScaling(value.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Set implements flag.Value.
func (s *Scaling) Set(v string) error {
	parsed, err := ParseScaling(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Config struct {
	Archive       string  `yaml:"archive"`
	CacheDir      string  `yaml:"cache_dir"`
	TablesDir     string  `yaml:"tables_dir"`
	Race          string  `yaml:"race"`
	Scaling       Scaling `yaml:"scaling"`
	FillFrame     bool    `yaml:"fill_frame"`
	Seed          uint64  `yaml:"seed"`
	FrameInterval int     `yaml:"frame_interval"`
	Debug         bool    `yaml:"debug"`
}

func Default() Config {
	return Config{
		TablesDir:     "tables",
		Race:          "urquan",
		Scaling:       ScaleFillHeight,
		FrameInterval: anim.FrameInterval,
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("config: parse %s: %w: %w", path, ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Race) == "" {
		problems = append(problems, "race is empty")
	}
	if c.Scaling < ScaleCenter || c.Scaling > ScaleFillHeight {
		problems = append(problems, fmt.Sprintf("scaling %d out of range", int(c.Scaling)))
	}
	if c.FrameInterval < 1 {
		problems = append(problems, fmt.Sprintf("frame interval %d < 1", c.FrameInterval))
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s: %w", strings.Join(problems, "; "), ErrInvalid)
	}
	return nil
}
