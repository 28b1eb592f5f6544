package taxonomy

import (
	"testing"

	"ecovision-etl/internal/domain/entity"
)

func TestDefaultCategorize(t *testing.T) {
	tax := MustDefault()

	tests := []struct {
		name string
		want string
	}{
		{"Quetzal Resplandeciente", entity.CategoryBirds},
		{"perezoso tres dedos", entity.CategoryMammals},
		{"JAGUAR", entity.CategoryMammals},
		{"Iguana Verde", entity.CategoryReptiles},
		{"Rana Venenosa", entity.CategoryAmphibians},
		{"tucan pico iris", entity.CategoryBirds},
		{"Mariposa Morpho", entity.CategoryUnknown},
	}
	for _, tt := range tests {
		if got := tax.Categorize(tt.name); got != tt.want {
			t.Fatalf("Categorize(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCategorizeUsesFirstMatchingCategory(t *testing.T) {
	tax, err := Parse([]byte(`
categories:
  - name: birds
    keywords: [quetzal]
  - name: mammals
    keywords: [jaguar]
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := tax.Categorize("jaguar quetzal"); got != entity.CategoryBirds {
		t.Fatalf("expected first listed category to win, got %q", got)
	}
	if got := tax.Categories(); len(got) != 2 || got[0] != "birds" || got[1] != "mammals" {
		t.Fatalf("unexpected category order: %v", got)
	}
}

func TestCanonical(t *testing.T) {
	tax := MustDefault()

	got, ok := tax.Canonical("perezoso tres dedos")
	if !ok || got != "Perezoso De Tres Dedos" {
		t.Fatalf("Canonical alias = %q, %v", got, ok)
	}

	again, ok := tax.Canonical(got)
	if !ok || again != got {
		t.Fatalf("canonical name should map to itself, got %q, %v", again, ok)
	}

	if _, ok := tax.Canonical("mariposa morpho"); ok {
		t.Fatal("unexpected canonical entry for unknown species")
	}
}

func TestParseRejectsReservedCategory(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - name: unknown
    keywords: [x]
`))
	if err == nil {
		t.Fatal("expected error for reserved category name")
	}

	if _, err := Parse([]byte("categories: [")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
