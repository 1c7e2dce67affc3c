package prefabs

import (
	"strings"
	"sync"

	"github.com/milk9111/commscreen/common"
)

const variantsFile = "variants.yaml"

var embeddedVariants = sync.OnceValue(func() map[string][]string {
	table, err := LoadSpec[map[string][]string]("", variantsFile)
	if err != nil {
		common.Logger().Error("prefabs: embedded variants", "err", err)
	}
	return table
})

// Variants returns the directory names content packs use for race: race
// itself first, then its known alternates.
func Variants(race string) []string {
	return Aliases(race, embeddedVariants()[strings.ToLower(race)])
}

// Aliases joins race and extra lists into one search list, dropping blanks
// and repeats while keeping first-seen order.
func Aliases(race string, extra ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	add(race)
	for _, list := range extra {
		for _, s := range list {
			add(s)
		}
	}
	return out
}

// Aliases returns the content-pack search list for s: its name, its own
// variants and then the embedded alternates.
func (s *RaceSpec) Aliases() []string {
	return Aliases(s.Name, s.Variants, Variants(s.Name))
}
