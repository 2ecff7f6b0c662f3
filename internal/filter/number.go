package filter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseFloat reads the longest numeric prefix of s, the way form inputs and
// table cells have always been read: "12 km" is 12, "abc" is not a number.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
		return math.Inf(1), true
	case strings.HasPrefix(s, "-Infinity"):
		return math.Inf(-1), true
	}
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// bound parses a form bound. Blank, malformed and zero inputs all fall back
// to def, so an empty field never excludes a row.
func bound(s string, def float64) float64 {
	f, ok := parseFloat(s)
	if !ok || f == 0 || math.IsNaN(f) {
		return def
	}
	return f
}

// cellNumber parses a table cell; anything unreadable counts as 0.
func cellNumber(s string) float64 {
	f, ok := parseFloat(s)
	if !ok {
		return 0
	}
	return f
}

// isSet reports whether a flag cell loosely equals 1 (numeric 1, "1", "1.0").
func isSet(cell string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	return err == nil && f == 1
}

// ratingMean extracts the mean from a "4.2 ± 0.8" cell.
func ratingMean(cell string) float64 {
	mean, _, _ := strings.Cut(cell, " ±")
	return cellNumber(mean)
}
