package table

import (
	"math"
	"regexp"
	"strings"
)

var negInf = math.Inf(-1)

var quotedWord = regexp.MustCompile(`"[^"]+"|\S+`)

type search struct {
	term  string
	regex bool
	re    *regexp.Regexp
	words []string
}

func newSearch(term string, regex, smart bool) search {
	s := search{term: term, regex: regex}
	if term == "" {
		return s
	}
	if regex {
		re, err := regexp.Compile("(?i)" + term)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
		}
		s.re = re
		return s
	}
	if !smart {
		s.words = []string{strings.ToLower(term)}
		return s
	}
	for _, w := range quotedWord.FindAllString(term, -1) {
		w = strings.Trim(w, `"`)
		if w != "" {
			s.words = append(s.words, strings.ToLower(w))
		}
	}
	return s
}

func (s search) empty() bool { return s.term == "" }

func (s search) match(value string) bool {
	if s.empty() {
		return true
	}
	if s.re != nil {
		return s.re.MatchString(value)
	}
	value = strings.ToLower(value)
	for _, w := range s.words {
		if !strings.Contains(value, w) {
			return false
		}
	}
	return true
}

// matchRow applies the search to the whole row; with smart search every word
// may be found in a different cell.
func (s search) matchRow(cells []string) bool {
	if s.empty() {
		return true
	}
	return s.match(strings.Join(cells, "  "))
}
