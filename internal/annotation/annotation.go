// Package annotation defines the enrichment boundary: dominant-language and
// named-entity detection over a text prefix.
package annotation

import (
	"context"
	"errors"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
)

// ErrNoLanguage is returned when detection produced no candidate language.
var ErrNoLanguage = errors.New("no dominant language detected")

// Annotator detects the dominant language of text and the entities in it.
type Annotator interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
	DetectEntities(ctx context.Context, text, languageCode string) ([]document.Entity, error)
}

// Prefix returns at most maxChars characters (runes) of text. A
// non-positive maxChars returns text unchanged.
func Prefix(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}
