package prefabs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/commscreen/anim"
)

// ErrUnknownRace reports a race with no descriptor table.
var ErrUnknownRace = errors.New("prefabs: unknown race")

// ErrMalformed reports a table that exists but cannot be read.
var ErrMalformed = errors.New("prefabs: malformed table")

// LoadSpec decodes the YAML file filename from dir or the embedded copies.
func LoadSpec[T any](dir, filename string) (T, error) {
	var zero T
	data, err := Load(dir, filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w: %w", filename, ErrMalformed, err)
	}

	return spec, nil
}

// RaceSpec is the descriptor table of one race. Animations are listed in
// track order; track i owns block mask bit i.
type RaceSpec struct {
	Name       string          `yaml:"name"`
	Variants   []string        `yaml:"variants"`
	Animations []AnimationSpec `yaml:"animations"`
}

// AnimationSpec is one descriptor row. In YAML it is either the 8-integer
// table form or a mapping with named fields.
type AnimationSpec struct {
	Start           int `yaml:"start"`
	Frames          int `yaml:"frames"`
	Flags           int `yaml:"flags"`
	FrameRate       int `yaml:"frame_rate"`
	FrameRateSpan   int `yaml:"frame_rate_span"`
	RestartRate     int `yaml:"restart_rate"`
	RestartRateSpan int `yaml:"restart_rate_span"`
	BlockMask       int `yaml:"block_mask"`
}

func (a *AnimationSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var v []int
		if err := value.Decode(&v); err != nil {
			return err
		}
		if len(v) != 8 {
			return fmt.Errorf("line %d: animation needs 8 values, got %d", value.Line, len(v))
		}
		*a = AnimationSpec{v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]}
		return nil
	case yaml.MappingNode:
		type plain AnimationSpec
		return value.Decode((*plain)(a))
	default:
		return fmt.Errorf("line %d: animation must be a list or mapping", value.Line)
	}
}

func (a AnimationSpec) ints() []int {
	return []int{a.Start, a.Frames, a.Flags, a.FrameRate, a.FrameRateSpan, a.RestartRate, a.RestartRateSpan, a.BlockMask}
}

// Descriptors converts the table to engine descriptors.
func (s *RaceSpec) Descriptors() ([]anim.Descriptor, error) {
	out := make([]anim.Descriptor, 0, len(s.Animations))
	for i, a := range s.Animations {
		d, err := anim.DescriptorFromInts(a.ints())
		if err != nil {
			return nil, fmt.Errorf("prefabs: %s animation %d: %w", s.Name, i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// tableFiles lists the file names tried for a race, in order.
func tableFiles(race string) []string {
	return []string{race + ".yaml", race + ".yml", race + ".xml"}
}

// LoadRaceSpec loads the table of race from dir (or the embedded copies). A
// YAML spec wins over Android XML resources of the same race. The returned
// spec's Name defaults to race.
func LoadRaceSpec(dir, race string) (*RaceSpec, error) {
	race = strings.ToLower(strings.TrimSpace(race))
	if race == "" {
		return nil, fmt.Errorf("prefabs: empty race: %w", ErrUnknownRace)
	}
	for _, name := range tableFiles(race) {
		spec, err := loadTable(dir, name, race)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if spec.Name == "" {
			spec.Name = race
		}
		return spec, nil
	}
	return nil, fmt.Errorf("prefabs: race %q: %w", race, ErrUnknownRace)
}

func loadTable(dir, name, race string) (*RaceSpec, error) {
	if !strings.HasSuffix(name, ".xml") {
		spec, err := LoadSpec[RaceSpec](dir, name)
		return &spec, err
	}
	data, err := Load(dir, name)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load %s: %w", name, err)
	}
	spec, err := ParseResources(data, race)
	if err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", name, err)
	}
	return spec, nil
}

// TableModTime reports the modification time of the on-disk table
// LoadRaceSpec would pick for race.
func TableModTime(dir, race string) (time.Time, bool) {
	race = strings.ToLower(strings.TrimSpace(race))
	for _, name := range tableFiles(race) {
		if t, ok := ModTime(dir, name); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
