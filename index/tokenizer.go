package index

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns raw text into the index/query term stream. Greek and
// Devanagari ranges pass through unchanged since these are philosophical
// technical terms the tokenizer and glossary-boosters must preserve.
type Tokenizer interface {
	Tokenize(text string) []string
}

// defaultStopwords is a small English function-word list, roughly the size
// the scorer packages this module draws on use for the same purpose.
var defaultStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"and": true, "but": true, "or": true, "nor": true, "so": true,
	"not": true, "only": true, "own": true, "same": true, "than": true,
	"too": true, "very": true, "this": true, "that": true, "these": true,
	"those": true, "with": true, "for": true, "from": true, "into": true,
}

// DefaultTokenizer implements the tokenization contract: lowercase, NFKC
// normalize, split on word boundaries, discard tokens of length < 3, filter
// the stopword list, and let Greek/Devanagari code points through untouched.
type DefaultTokenizer struct {
	stopwords map[string]bool
}

// NewDefaultTokenizer constructs a DefaultTokenizer with the built-in
// stopword list.
func NewDefaultTokenizer() *DefaultTokenizer {
	return &DefaultTokenizer{stopwords: defaultStopwords}
}

// isPreservedRange reports whether r falls in a script range that must pass
// through the tokenizer unchanged: Greek, Greek Extended, or Devanagari.
func isPreservedRange(r rune) bool {
	switch {
	case r >= 0x0370 && r <= 0x03FF: // Greek and Coptic
		return true
	case r >= 0x1F00 && r <= 0x1FFF: // Greek Extended
		return true
	case r >= 0x0900 && r <= 0x097F: // Devanagari
		return true
	}
	return false
}

// Tokenize implements Tokenizer.
func (t *DefaultTokenizer) Tokenize(text string) []string {
	normalized := norm.NFKC.String(text)
	lower := strings.ToLower(normalized)

	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := current.String()
		current.Reset()
		if len([]rune(tok)) < 3 {
			return
		}
		if t.stopwords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range lower {
		if isPreservedRange(r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}
