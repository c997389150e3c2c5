package usecase

import (
	"regexp"
	"strings"
)

// Formatting runes that mobile keyboards paste invisibly around addresses.
var invisibleRunes = map[rune]struct{}{
	'\u200b': {}, // zero-width space
	'\u200c': {}, // zero-width non-joiner
	'\u200d': {}, // zero-width joiner
	'\u200e': {}, // left-to-right mark
	'\u200f': {}, // right-to-left mark
	'\u2060': {}, // word joiner
	'\ufeff': {}, // byte order mark
}

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// NormalizeEmail strips invisible formatting runes, trims surrounding
// whitespace and lower-cases the result. Idempotent, never fails.
func NormalizeEmail(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if _, ok := invisibleRunes[r]; ok {
			return -1
		}
		return r
	}, raw)
	return strings.ToLower(strings.TrimSpace(cleaned))
}

// IsValidEmail reports whether s looks like an address: permitted local
// part, an @, a dotted domain with an alphabetic TLD of at least two
// letters. Syntactic check only, no DNS lookup.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}
