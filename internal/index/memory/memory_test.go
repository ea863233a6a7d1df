package memory

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index"
)

func put(t *testing.T, m *Index, key, content string, entities ...document.Entity) {
	t.Helper()
	doc := document.New(document.ObjectRef{Bucket: "b", Key: key}, content, "en", entities)
	if err := m.Put(context.Background(), doc.ID(), doc); err != nil {
		t.Fatalf("Put(%s): %v", key, err)
	}
}

func query(text string) index.Query {
	return index.Query{
		Text:           text,
		Fields:         []string{index.FieldContent, index.FieldEntitiesText},
		HighlightField: index.FieldContent,
		Size:           20,
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Revenue grew 10% in Q1-2024.")
	var terms []string
	for _, tok := range got {
		terms = append(terms, tok.term)
	}
	want := []string{"revenue", "grew", "10", "in", "q1", "2024"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("terms = %v, want %v", terms, want)
	}
	if got[0].start != 0 || got[0].end != 7 {
		t.Errorf("unexpected span for first token: %+v", got[0])
	}
}

func TestSearchFindsContentAndEntities(t *testing.T) {
	m := New()
	put(t, m, "reports/q1.png", "Revenue grew 10% in Q1\n", document.Entity{Text: "Q1", Type: "DATE"})
	put(t, m, "reports/hr.png", "Hiring plan for Acme\n", document.Entity{Text: "Acme", Type: "ORGANIZATION"})

	hits, err := m.Search(context.Background(), query("revenue"))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "reports_q1.png" {
		t.Fatalf("expected only reports_q1.png, got %+v", hits)
	}
	if got := hits[0].Fragments(index.FieldContent); len(got) != 1 || got[0] != "<em>Revenue</em> grew 10% in Q1" {
		t.Errorf("unexpected highlight %v", got)
	}

	hits, _ = m.Search(context.Background(), index.Query{Text: "acme", Fields: []string{index.FieldEntitiesText}, Size: 20})
	if len(hits) != 1 || hits[0].Source.Key != "reports/hr.png" {
		t.Fatalf("expected entity match on reports/hr.png, got %+v", hits)
	}
}

func TestPutReplacesExistingDocument(t *testing.T) {
	m := New()
	put(t, m, "a/b.png", "old words here\n")
	put(t, m, "a/b.png", "fresh content\n")

	if m.DocCount() != 1 {
		t.Fatalf("expected 1 document after overwrite, got %d", m.DocCount())
	}
	if hits, _ := m.Search(context.Background(), query("old")); len(hits) != 0 {
		t.Errorf("stale terms still match: %+v", hits)
	}
	hits, _ := m.Search(context.Background(), query("fresh"))
	if len(hits) != 1 || hits[0].Source.Content != "fresh content\n" {
		t.Errorf("expected replaced document, got %+v", hits)
	}
}

func TestSearchOrdersByScoreThenID(t *testing.T) {
	m := New()
	put(t, m, "z.png", "invoice\n")
	put(t, m, "a.png", "invoice\n")
	put(t, m, "m.png", "invoice invoice invoice total\n")

	hits, _ := m.Search(context.Background(), query("invoice"))
	var ids []string
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	want := []string{"m.png", "a.png", "z.png"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("expected strictly higher score for repeated term, got %v", hits)
	}
}

func TestSearchLimitsToSize(t *testing.T) {
	m := New()
	for i := 0; i < 25; i++ {
		put(t, m, fmt.Sprintf("doc-%02d.png", i), "shared term\n")
	}
	hits, _ := m.Search(context.Background(), query("shared"))
	if len(hits) != 20 {
		t.Errorf("expected 20 hits, got %d", len(hits))
	}
}

func TestSearchWithoutHighlightMatch(t *testing.T) {
	m := New()
	put(t, m, "x.png", "nothing relevant\n", document.Entity{Text: "Paris", Type: "LOCATION"})

	hits, _ := m.Search(context.Background(), query("paris"))
	if len(hits) != 1 {
		t.Fatalf("expected entity-only hit, got %d", len(hits))
	}
	if got := hits[0].Fragments(index.FieldContent); got == nil || len(got) != 0 {
		t.Errorf("expected empty highlight list, got %#v", got)
	}
}

func TestFragmentsCapped(t *testing.T) {
	text := ""
	for i := 0; i < 8; i++ {
		text += fmt.Sprintf("line %d has total\n", i)
	}
	if got := fragments(text, []string{"total"}); len(got) != maxFragments {
		t.Errorf("expected %d fragments, got %d", maxFragments, len(got))
	}
}

func BenchmarkPut(b *testing.B) {
	m := New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc := document.New(document.ObjectRef{Bucket: "b", Key: fmt.Sprintf("doc-%d", i)},
			"this is a benchmark document with several terms for testing the indexing performance\n", "en", nil)
		m.Put(context.Background(), doc.ID(), doc)
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	m := New()
	for i := 0; i < 10000; i++ {
		doc := document.New(document.ObjectRef{Bucket: "b", Key: fmt.Sprintf("doc-%d", i)},
			"search engine with distributed indexing and query processing\n", "en", nil)
		m.Put(context.Background(), doc.ID(), doc)
	}
	q := query("distributed search")
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Search(context.Background(), q)
		}
	})
}
