// Package memory is an in-process index.Writer and index.Searcher. It ranks
// with BM25 per field and keeps the best field's score, which mirrors a
// best_fields multi_match. It backs local runs and tests.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index"
)

// fieldIndex holds the inverted index of one searchable field.
type fieldIndex struct {
	postings map[string]map[string]int // term -> doc id -> frequency
	lengths  map[string]int
	totalLen int
}

func newFieldIndex() *fieldIndex {
	return &fieldIndex{
		postings: make(map[string]map[string]int),
		lengths:  make(map[string]int),
	}
}

func (f *fieldIndex) add(id, text string) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return
	}
	for _, t := range tokens {
		docs, ok := f.postings[t.term]
		if !ok {
			docs = make(map[string]int)
			f.postings[t.term] = docs
		}
		docs[id]++
	}
	f.lengths[id] = len(tokens)
	f.totalLen += len(tokens)
}

func (f *fieldIndex) remove(id, text string) {
	for _, t := range tokenize(text) {
		if docs, ok := f.postings[t.term]; ok {
			delete(docs, id)
			if len(docs) == 0 {
				delete(f.postings, t.term)
			}
		}
	}
	f.totalLen -= f.lengths[id]
	delete(f.lengths, id)
}

func (f *fieldIndex) avgLength() float64 {
	if len(f.lengths) == 0 {
		return 0
	}
	return float64(f.totalLen) / float64(len(f.lengths))
}

// Index is safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	docs   map[string]document.Document
	fields map[string]*fieldIndex
}

func New() *Index {
	return &Index{
		docs: make(map[string]document.Document),
		fields: map[string]*fieldIndex{
			index.FieldContent:      newFieldIndex(),
			index.FieldEntitiesText: newFieldIndex(),
		},
	}
}

// fieldText returns the analyzed text of a field, or "" for unknown fields.
func fieldText(doc document.Document, field string) string {
	switch field {
	case index.FieldContent:
		return doc.Content
	case index.FieldEntitiesText:
		texts := make([]string, len(doc.Entities))
		for i, e := range doc.Entities {
			texts[i] = e.Text
		}
		return strings.Join(texts, "\n")
	}
	return ""
}

// Put stores doc under id, replacing any previous version. The document is
// searchable as soon as Put returns.
func (m *Index) Put(_ context.Context, id string, doc document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.docs[id]; ok {
		for name, f := range m.fields {
			f.remove(id, fieldText(old, name))
		}
	}
	for name, f := range m.fields {
		f.add(id, fieldText(doc, name))
	}
	m.docs[id] = doc
	return nil
}

// Get returns the stored document for id.
func (m *Index) Get(id string) (document.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	return doc, ok
}

func (m *Index) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Search scores every document matching at least one query term in any of
// q.Fields. Equal scores are ordered by id.
func (m *Index) Search(ctx context.Context, q index.Query) ([]index.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := queryTerms(q.Text)

	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := make(map[string]float64)
	for _, name := range q.Fields {
		f, ok := m.fields[name]
		if !ok {
			continue
		}
		fieldScores := make(map[string]float64)
		avg := f.avgLength()
		for _, term := range terms {
			docs := f.postings[term]
			if len(docs) == 0 {
				continue
			}
			w := idf(len(f.lengths), len(docs))
			for id, freq := range docs {
				fieldScores[id] += w * tfNorm(freq, f.lengths[id], avg)
			}
		}
		for id, s := range fieldScores {
			if s > scores[id] {
				scores[id] = s
			}
		}
	}

	hits := make([]index.Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, index.Hit{
			ID:     id,
			Score:  math.Round(score*10000) / 10000,
			Source: m.docs[id],
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if q.Size > 0 && len(hits) > q.Size {
		hits = hits[:q.Size]
	}

	if q.HighlightField != "" {
		for i := range hits {
			if frags := fragments(fieldText(hits[i].Source, q.HighlightField), terms); len(frags) > 0 {
				hits[i].Highlights = map[string][]string{q.HighlightField: frags}
			}
		}
	}
	return hits, nil
}

// Ping always succeeds.
func (m *Index) Ping(context.Context) error { return nil }
