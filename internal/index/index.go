// Package index defines the boundary between the pipeline, the query path,
// and the search engine holding document records.
package index

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
)

// Searchable fields and the highlighted field of the documents index.
const (
	FieldContent      = "content"
	FieldEntitiesText = "entities.text"
)

// Writer stores documents by id. Put on an existing id replaces the record,
// and the record is visible to searches once Put returns.
type Writer interface {
	Put(ctx context.Context, id string, doc document.Document) error
}

// Searcher runs a relevance query.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Hit, error)
}

// Query is a full-text query matched against several fields at once. The
// best-matching field decides a document's score.
type Query struct {
	Text           string
	Fields         []string
	HighlightField string
	Size           int
}

// Hit is one ranked document with its highlight fragments keyed by field.
type Hit struct {
	ID         string
	Score      float64
	Source     document.Document
	Highlights map[string][]string
}

// Fragments returns the highlight fragments for field, never nil.
func (h Hit) Fragments(field string) []string {
	if f := h.Highlights[field]; f != nil {
		return f
	}
	return []string{}
}
