package skills

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Category groups canonical skill names.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategorySoft      Category = "soft"
)

// Variant maps an abbreviation pattern onto a canonical skill name.
type Variant struct {
	Pattern   string `yaml:"pattern"`
	Canonical string `yaml:"canonical"`
}

// Taxonomy is the curated skill list. It is built once and never mutated.
type Taxonomy struct {
	Technical []string  `yaml:"technical"`
	Soft      []string  `yaml:"soft"`
	Variants  []Variant `yaml:"variants"`
}

// DefaultTaxonomy returns the taxonomy compiled into the binary.
func DefaultTaxonomy() (*Taxonomy, error) {
	return ParseTaxonomy(defaultTaxonomy)
}

// LoadTaxonomy reads a taxonomy override from disk. An empty path selects the
// embedded default.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultTaxonomy()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file %q: %w", path, err)
	}

	tax, err := ParseTaxonomy(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy file %q: %w", path, err)
	}

	return tax, nil
}

// ParseTaxonomy decodes and validates a YAML taxonomy document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}

	tax.normalize()
	if err := tax.Validate(); err != nil {
		return nil, err
	}

	return &tax, nil
}

func (t *Taxonomy) normalize() {
	t.Technical = lowerAll(t.Technical)
	t.Soft = lowerAll(t.Soft)
	for i := range t.Variants {
		t.Variants[i].Canonical = strings.ToLower(strings.TrimSpace(t.Variants[i].Canonical))
	}
}

// Validate checks that skills are unique across categories and that every
// variant compiles and points at a known skill.
func (t *Taxonomy) Validate() error {
	if len(t.Technical)+len(t.Soft) == 0 {
		return errors.New("taxonomy has no skills")
	}

	seen := make(map[string]Category, len(t.Technical)+len(t.Soft))
	for _, group := range []struct {
		category Category
		names    []string
	}{
		{CategoryTechnical, t.Technical},
		{CategorySoft, t.Soft},
	} {
		for _, name := range group.names {
			if name == "" {
				return fmt.Errorf("empty %s skill name", group.category)
			}
			if prev, ok := seen[name]; ok {
				return fmt.Errorf("skill %q listed twice (%s, %s)", name, prev, group.category)
			}
			seen[name] = group.category
		}
	}

	for _, v := range t.Variants {
		if _, err := regexp.Compile(v.Pattern); err != nil {
			return fmt.Errorf("variant %q: %w", v.Pattern, err)
		}
		if _, ok := seen[v.Canonical]; !ok {
			return fmt.Errorf("variant %q maps to unknown skill %q", v.Pattern, v.Canonical)
		}
	}

	return nil
}

// Skills returns every canonical name, technical first, in declaration order.
func (t *Taxonomy) Skills() []string {
	out := make([]string, 0, len(t.Technical)+len(t.Soft))
	out = append(out, t.Technical...)
	return append(out, t.Soft...)
}

func lowerAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.ToLower(strings.TrimSpace(n)))
	}
	return out
}
