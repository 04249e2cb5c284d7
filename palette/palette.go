// Package palette holds the color taxonomy: the coarse families a player can be
// asked for and, per family, the fine-grained shade names the classifier may return.
//
// A Palette is immutable once built and safe for concurrent use.
package palette

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// MinFamilies is the smallest playable set a game can draw its sequence from.
const MinFamilies = 5

var (
	ErrTooFewFamilies   = errors.New("too-few-families")
	ErrMissingShades    = errors.New("missing-shades")
	ErrDuplicateFamily  = errors.New("duplicate-family")
	ErrMalformedPalette = errors.New("malformed-palette")
)

//go:embed palette.yaml
var defaultPalette []byte

type Palette struct {
	families []string
	shades   map[string]map[string]struct{}
}

type document struct {
	Families []string            `yaml:"families"`
	Shades   map[string][]string `yaml:"shades"`
}

// New validates and builds a palette. Names are compared case-insensitively and
// with surrounding whitespace ignored.
func New(families []string, shades map[string][]string) (*Palette, error) {
	if len(families) < MinFamilies {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrTooFewFamilies, len(families), MinFamilies)
	}

	p := &Palette{
		families: make([]string, 0, len(families)),
		shades:   make(map[string]map[string]struct{}, len(shades)),
	}

	for family, names := range shades {
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[normalize(n)] = struct{}{}
		}
		p.shades[normalize(family)] = set
	}

	for _, f := range families {
		f = normalize(f)
		if slices.Contains(p.families, f) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFamily, f)
		}
		if len(p.shades[f]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingShades, f)
		}
		p.families = append(p.families, f)
	}

	return p, nil
}

// Parse builds a palette from its YAML form.
func Parse(data []byte) (*Palette, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPalette, err)
	}
	return New(doc.Families, doc.Shades)
}

// Default returns the palette compiled into the binary.
func Default() *Palette {
	p, err := Parse(defaultPalette)
	if err != nil {
		panic(fmt.Sprintf("embedded palette is invalid: %v", err))
	}
	return p
}

// Families returns a copy of the playable families in their configured order.
func (p *Palette) Families() []string {
	return slices.Clone(p.families)
}

func (p *Palette) IsFamily(family string) bool {
	return slices.Contains(p.families, normalize(family))
}

// Contains reports whether shade belongs to family. Unknown families contain nothing.
func (p *Palette) Contains(family, shade string) bool {
	set, ok := p.shades[normalize(family)]
	if !ok {
		return false
	}
	_, ok = set[normalize(shade)]
	return ok
}

// Shades returns the sorted shade names of family.
func (p *Palette) Shades(family string) []string {
	set := p.shades[normalize(family)]
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
