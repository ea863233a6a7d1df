package document

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIDFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"reports/q1 report.pdf", "reports_q1 report.pdf"},
		{"a/b/c.png", "a_b_c.png"},
		{"flat.pdf", "flat.pdf"},
		{"/leading/slash", "_leading_slash"},
	}
	for _, tt := range tests {
		if got := IDFromKey(tt.key); got != tt.want {
			t.Errorf("IDFromKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
		if IDFromKey(tt.key) != IDFromKey(tt.key) {
			t.Errorf("IDFromKey(%q) is not deterministic", tt.key)
		}
	}
}

func TestNewNormalizesEntities(t *testing.T) {
	doc := New(ObjectRef{Bucket: "docs", Key: "a/b.pdf"}, "text\n", "en", nil)
	if doc.Entities == nil || len(doc.Entities) != 0 {
		t.Fatalf("expected empty non-nil entities, got %#v", doc.Entities)
	}
	if doc.ID() != "a_b.pdf" {
		t.Errorf("expected id a_b.pdf, got %q", doc.ID())
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"entities":[]`) {
		t.Errorf("expected empty entities array in JSON, got %s", raw)
	}
	for _, field := range []string{`"s3_bucket":"docs"`, `"s3_key":"a/b.pdf"`, `"language":"en"`} {
		if !strings.Contains(string(raw), field) {
			t.Errorf("expected %s in %s", field, raw)
		}
	}
}

func TestSearchResultRowOmitsIDAndContent(t *testing.T) {
	raw, err := json.Marshal(SearchResultRow{Key: "k", Highlight: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	for _, banned := range []string{"content", "document_id", "_id"} {
		if strings.Contains(string(raw), banned) {
			t.Errorf("result row must not carry %q: %s", banned, raw)
		}
	}
}
