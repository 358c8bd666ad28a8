// Package features turns raw task text into the normalized token set used by
// all downstream matching and classification. Extraction is deterministic:
// identical input always yields an identical set.
package features

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// TokenSet is an unordered set of normalized tokens. Single words and bigrams
// of consecutive content words both appear as entries.
type TokenSet map[string]struct{}

// Has reports whether the token is in the set.
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Add inserts a token into the set.
func (s TokenSet) Add(token string) {
	s[token] = struct{}{}
}

// Tokens returns the set contents sorted lexicographically. The order carries
// no meaning; it exists so output is stable for logging and tests.
func (s TokenSet) Tokens() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// stopwords are dropped before tokens and bigrams are emitted. The list is
// intentionally small: over-aggressive filtering erases routing signal.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "for": {}, "with": {},
	"is": {}, "are": {}, "be": {}, "was": {}, "were": {},
	"this": {}, "that": {}, "these": {}, "those": {},
	"it": {}, "its": {}, "as": {}, "at": {}, "by": {}, "from": {},
	"we": {}, "our": {}, "you": {}, "your": {},
	"will": {}, "would": {}, "should": {}, "can": {}, "could": {},
	"do": {}, "does": {}, "have": {}, "has": {}, "had": {},
	"into": {}, "onto": {}, "up": {}, "out": {}, "so": {}, "if": {},
	"then": {}, "than": {}, "when": {}, "while": {},
	"all": {}, "any": {}, "some": {}, "also": {}, "about": {},
}

var folder = cases.Fold()

// Normalize lowercases the text with Unicode case folding, replaces
// punctuation with spaces and collapses runs of whitespace. Phrase-level
// checks (urgency wording, multi-phase language) run against this form.
func Normalize(text string) string {
	folded := folder.String(text)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Extract tokenizes the text into a TokenSet. Case is folded, punctuation
// stripped, stop-words dropped, and bigrams emitted for each pair of
// consecutive content words so that compound terms ("machine learning")
// survive as a single unit.
func Extract(text string) TokenSet {
	set := make(TokenSet)
	words := strings.Fields(Normalize(text))

	content := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stopwords[w]; skip {
			continue
		}
		content = append(content, w)
	}

	for i, w := range content {
		set.Add(w)
		if i > 0 {
			set.Add(content[i-1] + " " + w)
		}
	}
	return set
}

// WordCount returns the number of whitespace-separated words in the raw text.
// The classifier uses this as its specification-depth proxy.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
