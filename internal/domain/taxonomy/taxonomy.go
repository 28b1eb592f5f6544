// Package taxonomy holds the fixed species lookup tables used when cleaning
// sightings: category keywords and canonical name spellings.
package taxonomy

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"ecovision-etl/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

//go:embed species.yaml
var defaultDocument []byte

// Category is an ordered keyword set
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type canonicalName struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type document struct {
	Categories     []Category      `yaml:"categories"`
	CanonicalNames []canonicalName `yaml:"canonical_names"`
}

// Taxonomy is immutable once built
type Taxonomy struct {
	categories []Category
	canonical  map[string]string
}

var (
	defaultOnce     sync.Once
	defaultTaxonomy *Taxonomy
	defaultErr      error
)

// Default returns the embedded taxonomy, parsed once per process
func Default() (*Taxonomy, error) {
	defaultOnce.Do(func() {
		defaultTaxonomy, defaultErr = Parse(defaultDocument)
	})
	return defaultTaxonomy, defaultErr
}

// MustDefault is Default for callers that cannot continue without the tables
func MustDefault() *Taxonomy {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// Parse builds a taxonomy from a YAML document
func Parse(data []byte) (*Taxonomy, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}

	t := &Taxonomy{
		categories: make([]Category, 0, len(doc.Categories)),
		canonical:  make(map[string]string),
	}
	for _, c := range doc.Categories {
		if c.Name == "" || c.Name == entity.CategoryUnknown {
			return nil, fmt.Errorf("invalid category name %q", c.Name)
		}
		keywords := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		t.categories = append(t.categories, Category{Name: c.Name, Keywords: keywords})
	}
	for _, n := range doc.CanonicalNames {
		// the canonical spelling maps to itself so normalization is idempotent
		t.canonical[strings.ToLower(n.Name)] = n.Name
		for _, alias := range n.Aliases {
			t.canonical[strings.ToLower(strings.Join(strings.Fields(alias), " "))] = n.Name
		}
	}
	return t, nil
}

// Categorize returns the first category with a keyword contained in name
func (t *Taxonomy) Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, c := range t.categories {
		for _, k := range c.Keywords {
			if strings.Contains(lower, k) {
				return c.Name
			}
		}
	}
	return entity.CategoryUnknown
}

// Canonical looks up the canonical spelling for an already collapsed name
func (t *Taxonomy) Canonical(name string) (string, bool) {
	v, ok := t.canonical[strings.ToLower(name)]
	return v, ok
}

// Categories returns the category names in tie-break order
func (t *Taxonomy) Categories() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}
