package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Nearest returns the known command closest to name by edit distance,
// or "" when nothing is plausibly close. Matching is case-insensitive;
// a candidate qualifies when the distance stays under 40% of the longer
// name.
func (c *Catalog) Nearest(name string) string {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return ""
	}
	best := ""
	bestDist := -1
	for _, n := range c.names {
		dist := levenshtein.ComputeDistance(query, strings.ToLower(n))
		if bestDist == -1 || dist < bestDist {
			best, bestDist = n, dist
		}
	}
	if best == "" {
		return ""
	}
	maxlen := len(query)
	if len(best) > maxlen {
		maxlen = len(best)
	}
	if float64(bestDist)/float64(maxlen) >= 0.4 {
		return ""
	}
	return best
}
