package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldName lowercases a place name and strips diacritics, so "Zürich",
// "Zuerich" queries and "Genève" data can be matched loosely.
func FoldName(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	// Swiss names are often typed with ae/oe/ue in place of umlauts.
	folded = strings.NewReplacer("ae", "a", "oe", "o", "ue", "u").Replace(folded)
	return folded
}

// MatchName reports whether a place name matches a user query after folding.
func MatchName(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(FoldName(name), FoldName(query))
}
