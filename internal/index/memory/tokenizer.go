package memory

import (
	"strings"
	"unicode"
)

// token is one lower-cased term with its byte span in the source text.
type token struct {
	term  string
	start int
	end   int
}

// tokenize splits text on every rune that is neither a letter nor a digit
// and lower-cases the pieces, the way the engine's standard analyzer does.
// Stop words are kept and nothing is stemmed, so both backends agree on
// which documents match.
func tokenize(text string) []token {
	tokens := make([]token, 0, len(text)/6)
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, token{term: strings.ToLower(text[start:i]), start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{term: strings.ToLower(text[start:]), start: start, end: len(text)})
	}
	return tokens
}

// queryTerms returns the distinct terms of a query in first-seen order.
func queryTerms(q string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range tokenize(q) {
		if _, ok := seen[t.term]; ok {
			continue
		}
		seen[t.term] = struct{}{}
		terms = append(terms, t.term)
	}
	return terms
}
