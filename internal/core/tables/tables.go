// Package tables holds the read-only lookup data used by the conversion core:
// the amateur band allocation table and the two mode substitution passes.
//
// The data lives in embedded YAML files so it can be audited without reading
// Go code. It is parsed once at init; a malformed file is a build defect and
// panics at startup.
package tables

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed bands.yaml
var bandsYAML []byte

//go:embed modes.yaml
var modesYAML []byte

// BandRange maps an inclusive frequency interval in MHz to an ADIF band.
type BandRange struct {
	LowerMHz float64 `yaml:"lower_mhz"`
	UpperMHz float64 `yaml:"upper_mhz"`
	Band     string  `yaml:"band"`
}

// Contains reports whether freq lies within the range, bounds included.
func (b BandRange) Contains(freq float64) bool {
	return freq >= b.LowerMHz && freq <= b.UpperMHz
}

// Substitution rewrites every occurrence of Pattern with Replacement.
type Substitution struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

type bandFile struct {
	Bands []BandRange `yaml:"bands"`
}

type modeFile struct {
	Synonyms  []Substitution `yaml:"synonyms"`
	Canonical []Substitution `yaml:"canonical"`
}

var (
	bands     []BandRange
	synonyms  []Substitution
	canonical []Substitution
)

func init() {
	var err error
	if bands, err = parseBands(bandsYAML); err != nil {
		panic(err)
	}
	if synonyms, canonical, err = parseModes(modesYAML); err != nil {
		panic(err)
	}
}

func parseBands(data []byte) ([]BandRange, error) {
	var f bandFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse band table: %w", err)
	}
	if len(f.Bands) == 0 {
		return nil, fmt.Errorf("parse band table: no bands defined")
	}
	for i, b := range f.Bands {
		if b.Band == "" {
			return nil, fmt.Errorf("parse band table: entry %d has no band", i)
		}
		if b.LowerMHz > b.UpperMHz {
			return nil, fmt.Errorf("parse band table: %s lower bound %g above upper bound %g",
				b.Band, b.LowerMHz, b.UpperMHz)
		}
	}
	return f.Bands, nil
}

func parseModes(data []byte) (syn, canon []Substitution, err error) {
	var f modeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse mode table: %w", err)
	}
	for _, s := range append(append([]Substitution{}, f.Synonyms...), f.Canonical...) {
		if s.Pattern == "" {
			return nil, nil, fmt.Errorf("parse mode table: empty pattern for %q", s.Replacement)
		}
	}
	return f.Synonyms, f.Canonical, nil
}

// Bands returns the band table in declaration order.
// The slice is shared; callers must not modify it.
func Bands() []BandRange { return bands }

// ModeSynonyms returns the first substitution pass, mapping vendor and brand
// names to intermediate tokens.
func ModeSynonyms() []Substitution { return synonyms }

// ModeCanonical returns the second substitution pass, mapping protocol tokens
// to ADIF mode families.
func ModeCanonical() []Substitution { return canonical }
