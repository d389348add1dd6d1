// Package builder turns a free-text use case into a certified customer data product
// mapping. Every stage is a pure function over the catalog; Pipeline chains them.
package builder

import (
	"strings"

	"finitefield.org/c360-builder/internal/catalog"
	"finitefield.org/c360-builder/internal/platform/textutil"
)

// Interpretation maps each catalog category to the keywords found in the use case.
// Every category is present; unmatched categories hold an empty, non-nil slice.
type Interpretation map[string][]string

// Interpret scans text for every keyword of every category using case-insensitive
// substring containment. Catalog keywords are folded at load, so only the text is
// folded here. Matches keep the catalog keyword order.
func Interpret(c *catalog.Catalog, text string) Interpretation {
	folded := textutil.Fold(text)
	out := make(Interpretation, len(c.Categories))
	for _, cat := range c.Categories {
		matches := make([]string, 0, len(cat.Keywords))
		for _, keyword := range cat.Keywords {
			if keyword != "" && strings.Contains(folded, keyword) {
				matches = append(matches, keyword)
			}
		}
		out[cat.Name] = matches
	}
	return out
}

// Matched reports whether at least one keyword of category was found.
func (in Interpretation) Matched(category string) bool {
	return len(in[category]) > 0
}

// MatchedCategories returns the categories with matches, in catalog order.
func (in Interpretation) MatchedCategories(c *catalog.Catalog) []string {
	var names []string
	for _, cat := range c.Categories {
		if in.Matched(cat.Name) {
			names = append(names, cat.Name)
		}
	}
	return names
}
