// Package normalize derives the comparison key under which search terms are
// grouped, deduplicated and matched.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key returns text lowercased, with combining diacritical marks removed and
// surrounding whitespace trimmed, so that "  Café " and "cafe" share a key.
// Key is pure and idempotent: Key(Key(s)) == Key(s).
func Key(text string) string {
	if text == "" {
		return ""
	}
	// A fresh chain per call: transform.Chain keeps state and is not safe for
	// concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	return strings.TrimSpace(strings.ToLower(stripped))
}
