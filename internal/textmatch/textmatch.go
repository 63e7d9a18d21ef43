// Package textmatch provides case-insensitive substring matching for the
// catalog filter engine and note search.
package textmatch

import (
	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

// Contains reports whether text contains pattern, ignoring case and
// diacritics. An empty pattern matches everything.
func Contains(text, pattern string) bool {
	if pattern == "" {
		return true
	}
	m := search.New(language.English, search.IgnoreCase, search.IgnoreDiacritics)
	start, _ := m.IndexString(text, pattern)
	return start >= 0
}

// ContainsAny reports whether any of the texts contains pattern.
func ContainsAny(texts []string, pattern string) bool {
	for _, t := range texts {
		if Contains(t, pattern) {
			return true
		}
	}
	return false
}
