// Package slug builds URL-friendly identifiers for catalog records.
package slug

import (
	"regexp"
	"strings"

	"github.com/utafrali/discovery/internal/normalize"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// dotless ı and ł carry no combining mark to strip, so they are folded by hand.
var unmarked = strings.NewReplacer("ı", "i", "ł", "l", "ø", "o", "ß", "ss", "æ", "ae", "œ", "oe")

// Generate lowercases name, folds accented letters to ASCII and joins the
// remaining alphanumeric runs with single hyphens.
//
// Examples:
//   - "Kadın Giyim" → "kadin-giyim"
//   - "Café Crème" → "cafe-creme"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	folded := unmarked.Replace(normalize.Key(name))
	return strings.Trim(nonAlnum.ReplaceAllString(folded, "-"), "-")
}
