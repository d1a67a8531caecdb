package normalize

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalizer lowercases tokens and gates what may become a frequency key.
// A Normalizer holds a stateful caser and must not be shared between
// goroutines.
type Normalizer struct {
	lower      cases.Caser
	foldLemmas bool
}

// New creates a normalizer. When foldLemmas is set, lemma values are
// lowercased like surface tokens.
func New(foldLemmas bool) *Normalizer {
	return &Normalizer{
		lower:      cases.Lower(language.Und),
		foldLemmas: foldLemmas,
	}
}

// Key lowercases text and reports whether the result is an acceptable key.
// Tokens containing a decimal digit or any non-word rune are rejected, so
// punctuation-only tokens such as "." never become keys.
func (n *Normalizer) Key(text string) (string, bool) {
	key := n.lower.String(text)
	if !IsWord(key) {
		return "", false
	}
	return key, true
}

// Lemma returns the aggregation key for a lemma attribute value.
func (n *Normalizer) Lemma(lemma string) string {
	if !n.foldLemmas {
		return lemma
	}
	return n.lower.String(lemma)
}

// IsWord reports whether s is non-empty and made only of word runes with no
// decimal digits.
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isWordRune(r) {
			return false
		}
	}
	return true
}

// isWordRune accepts letters (accented and multi-byte included), connector
// punctuation such as '_', and non-decimal numbers such as '½'.
func isWordRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.Is(unicode.Pc, r) {
		return true
	}
	return unicode.IsNumber(r) && !unicode.IsDigit(r)
}
