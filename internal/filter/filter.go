// Package filter narrows showings down to titles the user cares about.
//
// Titles are compared after normalisation: lower-cased, with every character
// that is not an ASCII letter, digit, underscore or whitespace removed. A
// keyword matches when it appears anywhere in the normalised title, so
// "apocalypse" matches "Apocalypse Now!" and "dr strangelove" matches
// "Dr. Strangelove".
//
// Example usage:
//
//	kw := filter.NewKeywords([]string{"Stalker", "apocalypse"})
//	matched := kw.Apply(newShowings)
package filter

import (
	"regexp"
	"strings"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// Keywords is a set of lower-cased title keywords
type Keywords struct {
	words []string
}

// NewKeywords builds a keyword set. Keywords are trimmed and lower-cased;
// empty entries and duplicates are dropped.
func NewKeywords(words []string) *Keywords {
	seen := make(map[string]bool, len(words))
	k := &Keywords{words: make([]string, 0, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		k.words = append(k.words, w)
	}
	return k
}

// Words returns the normalised keywords in the order they were given
func (k *Keywords) Words() []string {
	return append([]string(nil), k.words...)
}

// IsEmpty returns true if there are no keywords.
// An empty set matches nothing.
func (k *Keywords) IsEmpty() bool {
	return len(k.words) == 0
}

// Match reports whether the showing's title contains any keyword
func (k *Keywords) Match(s showing.Showing) bool {
	return k.MatchTitle(s.Title)
}

// MatchTitle reports whether title contains any keyword after normalisation
func (k *Keywords) MatchTitle(title string) bool {
	normalized := NormalizeTitle(title)
	for _, w := range k.words {
		if strings.Contains(normalized, w) {
			return true
		}
	}
	return false
}

// Apply returns the showings whose titles match, keeping per-date order.
// Dates left with no showings are omitted. The input is not modified.
func (k *Keywords) Apply(m showing.ByDate) showing.ByDate {
	result := make(showing.ByDate)
	for date, list := range m {
		for _, s := range list {
			if k.Match(s) {
				result.Add(date, s)
			}
		}
	}
	return result
}

// NormalizeTitle lower-cases title and strips punctuation
func NormalizeTitle(title string) string {
	return nonWordPattern.ReplaceAllString(strings.ToLower(title), "")
}
