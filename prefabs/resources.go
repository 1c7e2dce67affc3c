package prefabs

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

type resourcesXML struct {
	StringArrays  []arrayXML `xml:"string-array"`
	IntegerArrays []arrayXML `xml:"integer-array"`
}

type arrayXML struct {
	Name  string   `xml:"name,attr"`
	Items []string `xml:"item"`
}

// ParseResources reads the table of race from an Android resources file.
//
// The file holds a string-array named after the race: its first item names
// the string-array of content directory variants and the remaining items
// name the integer-arrays of each animation, in track order.
func ParseResources(data []byte, race string) (*RaceSpec, error) {
	var res resourcesXML
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&res); err != nil {
		return nil, fmt.Errorf("prefabs: resources: %w: %w", ErrMalformed, err)
	}

	strs := make(map[string][]string, len(res.StringArrays))
	for _, a := range res.StringArrays {
		strs[a.Name] = a.Items
	}
	ints := make(map[string][]string, len(res.IntegerArrays))
	for _, a := range res.IntegerArrays {
		ints[a.Name] = a.Items
	}

	lookup, ok := strs[race]
	if !ok {
		return nil, fmt.Errorf("prefabs: resources: no lookup array %q: %w", race, ErrUnknownRace)
	}
	if len(lookup) == 0 {
		return nil, fmt.Errorf("prefabs: resources: lookup array %q is empty: %w", race, ErrMalformed)
	}

	content := arrayRef(lookup[0])
	variants, ok := strs[content]
	if !ok {
		return nil, fmt.Errorf("prefabs: resources: missing content array %q: %w", content, ErrMalformed)
	}

	spec := &RaceSpec{Name: race}
	for _, v := range variants {
		if v = strings.TrimSpace(v); v != "" {
			spec.Variants = append(spec.Variants, v)
		}
	}

	for _, item := range lookup[1:] {
		name := arrayRef(item)
		raw, ok := ints[name]
		if !ok {
			return nil, fmt.Errorf("prefabs: resources: missing animation array %q: %w", name, ErrMalformed)
		}
		if len(raw) != 8 {
			return nil, fmt.Errorf("prefabs: resources: %s has %d values, want 8: %w", name, len(raw), ErrMalformed)
		}
		var v [8]int
		for i, s := range raw {
			n, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
			if err != nil {
				return nil, fmt.Errorf("prefabs: resources: %s item %d: %w: %w", name, i, ErrMalformed, err)
			}
			v[i] = int(n)
		}
		spec.Animations = append(spec.Animations, AnimationSpec{v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]})
	}
	return spec, nil
}

// arrayRef strips an Android "@array/" reference prefix.
func arrayRef(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimPrefix(s, "@array/")
}
