package searcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index/memory"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
)

type countingIndex struct {
	hits    []index.Hit
	err     error
	queries []index.Query
}

func (c *countingIndex) Search(ctx context.Context, q index.Query) ([]index.Hit, error) {
	c.queries = append(c.queries, q)
	return c.hits, c.err
}

func TestBlankQueryNeverReachesIndex(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		idx := &countingIndex{}
		_, err := New(idx).Search(context.Background(), q)
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("q=%q: expected ErrInvalidInput, got %v", q, err)
		}
		if apperrors.HTTPStatusCode(err) != http.StatusBadRequest {
			t.Errorf("q=%q: expected 400, got %d", q, apperrors.HTTPStatusCode(err))
		}
		if len(idx.queries) != 0 {
			t.Errorf("q=%q: index was queried", q)
		}
	}
}

func TestQueryShape(t *testing.T) {
	idx := &countingIndex{}
	if _, err := New(idx).Search(context.Background(), "revenue"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := index.Query{
		Text:           "revenue",
		Fields:         []string{"content", "entities.text"},
		HighlightField: "content",
		Size:           20,
	}
	if len(idx.queries) != 1 || !reflect.DeepEqual(idx.queries[0], want) {
		t.Errorf("queries = %+v, want %+v", idx.queries, want)
	}
}

func TestIndexFailureIsDependencyError(t *testing.T) {
	idx := &countingIndex{err: errors.New("search failed (503): cluster red")}
	_, err := New(idx).Search(context.Background(), "revenue")
	if !errors.Is(err, apperrors.ErrDependency) {
		t.Fatalf("expected ErrDependency, got %v", err)
	}
	if apperrors.PublicMessage(err) != SearchFailedMessage {
		t.Errorf("unexpected message %q", apperrors.PublicMessage(err))
	}
}

func TestProjectionKeepsEngineOrderAndHidesContent(t *testing.T) {
	idx := &countingIndex{hits: []index.Hit{
		{ID: "b", Score: 3, Source: document.Document{Key: "b", Content: "secret body", Language: "en"}},
		{ID: "a", Score: 1, Source: document.Document{Key: "a", Language: "fr", Entities: []document.Entity{{Text: "Paris", Type: "LOCATION"}}},
			Highlights: map[string][]string{"content": {"<em>x</em>"}}},
	}}
	rows, err := New(idx).Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 2 || rows[0].Key != "b" || rows[1].Key != "a" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	raw, _ := json.Marshal(rows)
	if strings.Contains(string(raw), "secret body") || strings.Contains(string(raw), `"content"`) || strings.Contains(string(raw), "document_id") {
		t.Errorf("row leaks document fields: %s", raw)
	}
	if !strings.Contains(string(raw), `"highlight":[]`) || !strings.Contains(string(raw), `"entities":[]`) {
		t.Errorf("expected empty arrays rather than null: %s", raw)
	}
}

func TestSearchFindsIndexedDocument(t *testing.T) {
	idx := memory.New()
	entities := []document.Entity{{Text: "10%", Type: "QUANTITY"}}
	doc := document.New(document.ObjectRef{Bucket: "docs", Key: "reports/q1 report.pdf"},
		"Revenue grew 10%\nNet income up\n", "en", entities)
	idx.Put(context.Background(), doc.ID(), doc)

	rows, err := New(idx).Search(context.Background(), "revenue")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Key != "reports/q1 report.pdf" {
		t.Errorf("unexpected key %q", row.Key)
	}
	if len(row.Highlight) == 0 || !strings.Contains(row.Highlight[0], "<em>Revenue</em>") {
		t.Errorf("expected marked Revenue in highlight, got %v", row.Highlight)
	}
	if !reflect.DeepEqual(row.Entities, entities) {
		t.Errorf("entities = %+v, want %+v", row.Entities, entities)
	}
}
