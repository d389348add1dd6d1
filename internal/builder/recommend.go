package builder

import "finitefield.org/c360-builder/internal/catalog"

// Recommend collects the attribute lists of every matched category and returns the
// de-duplicated set. The result is unordered: it is read back from a set, so two runs
// over the same input may list the same attributes in a different order. Callers that
// need a stable order sort it (see Report.Normalized).
func Recommend(c *catalog.Catalog, in Interpretation) []string {
	set := make(map[string]struct{})
	for _, cat := range c.Categories {
		if !in.Matched(cat.Name) {
			continue
		}
		for _, attr := range cat.Attributes {
			set[attr] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for attr := range set {
		out = append(out, attr)
	}
	return out
}
