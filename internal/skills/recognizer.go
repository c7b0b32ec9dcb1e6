package skills

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type variant struct {
	re        *regexp.Regexp
	canonical string
}

// Recognizer finds taxonomy skills in free text. It holds no mutable state and
// is safe for concurrent use.
//
// Matching is a plain substring test, so short names over-match inside longer
// words: "maintain" yields ai and "javascript" yields java. This is accepted.
type Recognizer struct {
	names      []string
	categories map[string]Category
	variants   []variant
}

// NewRecognizer compiles the taxonomy's variant patterns.
func NewRecognizer(tax *Taxonomy) (*Recognizer, error) {
	if tax == nil {
		return nil, fmt.Errorf("taxonomy is required")
	}

	r := &Recognizer{
		names:      tax.Skills(),
		categories: make(map[string]Category, len(tax.Technical)+len(tax.Soft)),
		variants:   make([]variant, 0, len(tax.Variants)),
	}

	for _, name := range tax.Technical {
		r.categories[name] = CategoryTechnical
	}
	for _, name := range tax.Soft {
		r.categories[name] = CategorySoft
	}

	for _, v := range tax.Variants {
		re, err := regexp.Compile(v.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile variant %q: %w", v.Pattern, err)
		}
		r.variants = append(r.variants, variant{re: re, canonical: v.Canonical})
	}

	return r, nil
}

// NewDefaultRecognizer builds a Recognizer over the embedded taxonomy.
func NewDefaultRecognizer() (*Recognizer, error) {
	tax, err := DefaultTaxonomy()
	if err != nil {
		return nil, err
	}
	return NewRecognizer(tax)
}

// Recognize returns the canonical skills mentioned in text.
func (r *Recognizer) Recognize(text string) Set {
	found := make(Set)

	normalized := Normalize(text)
	if normalized == "" {
		return found
	}

	for _, name := range r.names {
		if strings.Contains(normalized, name) {
			found.Add(name)
		}
	}

	for _, v := range r.variants {
		if found.Has(v.canonical) {
			continue
		}
		if v.re.MatchString(normalized) {
			found.Add(v.canonical)
		}
	}

	return found
}

// Categorize splits set into technical and soft skills. Names unknown to the
// taxonomy are dropped.
func (r *Recognizer) Categorize(set Set) (technical, soft Set) {
	technical, soft = make(Set), make(Set)
	for name := range set {
		switch r.categories[name] {
		case CategoryTechnical:
			technical.Add(name)
		case CategorySoft:
			soft.Add(name)
		}
	}
	return technical, soft
}

// Normalize applies NFKC and lower-cases text.
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}
