package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Legal-form suffixes and connectives carry no identity.
var ignoredTokens = map[string]struct{}{
	"ltda": {}, "me": {}, "epp": {}, "eireli": {}, "sa": {}, "s": {}, "a": {},
	"cia": {}, "mei": {}, "de": {}, "da": {}, "do": {}, "das": {}, "dos": {}, "e": {},
}

// foldName lowercases and strips diacritics ("Gráfica São João" -> "grafica sao joao").
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(folded)
}

func nameTokens(s string) map[string]struct{} {
	fields := strings.FieldsFunc(foldName(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		if _, skip := ignoredTokens[f]; skip {
			continue
		}

		tokens[f] = struct{}{}
	}

	return tokens
}

// tokenOverlap is the Jaccard ratio of two token sets.
func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	shared := 0

	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}

	union := len(a) + len(b) - shared

	return float64(shared) / float64(union)
}
