package filter

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

const suggestThreshold = 0.85

// ClosestRegion returns the known region most similar to name, when one is
// close enough to be a likely typo.
func (e *Engine) ClosestRegion(name string) (string, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return "", false
	}

	var (
		best  string
		score float64
	)
	metric := metrics.NewJaroWinkler()
	for _, r := range e.regions {
		s := strutil.Similarity(query, strings.ToLower(r), metric)
		if s > score && s >= suggestThreshold {
			best, score = r, s
		}
	}
	return best, best != ""
}
