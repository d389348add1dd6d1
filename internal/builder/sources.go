package builder

import "finitefield.org/c360-builder/internal/catalog"

// UnknownSource labels attributes that are missing from the source table.
const UnknownSource = "UNKNOWN"

// IdentifySources looks every attribute up in the catalog source table. Misses map
// to UnknownSource rather than failing.
func IdentifySources(c *catalog.Catalog, attributes []string) map[string]string {
	out := make(map[string]string, len(attributes))
	for _, attr := range attributes {
		source, ok := c.Source(attr)
		if !ok {
			source = UnknownSource
		}
		out[attr] = source
	}
	return out
}
