// Package normalize cleans up text that arrives from outside the server.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text returns s in Unicode NFC with null bytes dropped, runs of whitespace
// collapsed to a single space, and surrounding whitespace trimmed.
// "Café  Society " -> "Café Society".
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(sanitizeString(s))
	return strings.Join(strings.Fields(s), " ")
}

// Fold reduces s to a lowercase, accent-free form for case-insensitive
// matching. "Émile Zola" -> "emile zola".
func Fold(s string) string {
	s = norm.NFKD.String(Text(s))

	// Drop combining marks left behind by decomposition.
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)

	return strings.ToLower(s)
}

// ContainsFold reports whether substr occurs in s, ignoring case and accents.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// sanitizeString removes null bytes, which break JSON and SQLite text columns.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
