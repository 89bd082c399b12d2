package mcp

import (
	"sort"

	"github.com/sahilm/fuzzy"
)

// Suggest ranks catalog entries against query by fuzzy match on the tool
// name. An empty query lists the catalog alphabetically. At most limit
// entries are returned when limit > 0.
func Suggest(query string, catalog []CatalogEntry, limit int) []CatalogEntry {
	var out []CatalogEntry

	if query == "" {
		out = append(out, catalog...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Tool.Name < out[j].Tool.Name
		})
	} else {
		targets := make([]string, len(catalog))
		for i, entry := range catalog {
			targets[i] = entry.Tool.Name
		}

		matches := fuzzy.Find(query, targets)
		out = make([]CatalogEntry, len(matches))
		for i, match := range matches {
			out[i] = catalog[match.Index]
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Complete returns the best completion for a partial tool name, or the
// input unchanged when nothing matches.
func Complete(partial string, catalog []CatalogEntry) string {
	matches := Suggest(partial, catalog, 1)
	if len(matches) == 0 {
		return partial
	}
	return matches[0].Tool.Name
}
