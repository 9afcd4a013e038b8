package country

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalize folds a country name into its matching key: accents removed, lower case,
// punctuation turned into spaces, "&" spelled out and a leading or trailing "the"
// dropped ("Gambia, The" and "The Gambia" both become "gambia").
func normalize(name string) string {
	// transform chains keep state, so one is built per call
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	folded = strings.ToLower(strings.ReplaceAll(folded, "&", " and "))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	if len(fields) > 1 && fields[0] == "the" {
		fields = fields[1:]
	}
	if len(fields) > 1 && fields[len(fields)-1] == "the" {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// isCode reports whether s looks like an upper-case ISO code of the given length.
func isCode(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
