// Package categorize implements the four-stage categorization pipeline:
// rule engine, bank-category mapper, AI categorizer and transfer detector.
package categorize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases, trims and strips diacritics from a description or
// pattern so that matching is case- and accent-insensitive. Bank exports
// are inconsistent about accents ("Prélèvement" vs "Prelevement"), so both
// sides of every comparison go through this.
func Normalize(s string) string {
	folded, _, err := transform.String(accentStripper, s)
	if err != nil {
		// Transform only fails on invalid UTF-8; fall back to the raw
		// string rather than losing the row.
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
