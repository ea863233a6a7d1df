// Package document defines the indexed record shared by the ingestion
// pipeline and the query path, and the deterministic mapping from a storage
// key to its index document id.
package document

import (
	"strings"
	"time"
)

// ObjectRef locates one stored object.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Entity is one detected named entity, in detection order.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Document is the canonical searchable record derived from one object.
type Document struct {
	Bucket   string   `json:"s3_bucket"`
	Key      string   `json:"s3_key"`
	Content  string   `json:"content"`
	Entities []Entity `json:"entities"`
	Language string   `json:"language"`
}

// New assembles a Document. A nil entity list is stored as an empty one.
func New(ref ObjectRef, content, language string, entities []Entity) Document {
	if entities == nil {
		entities = []Entity{}
	}
	return Document{
		Bucket:   ref.Bucket,
		Key:      ref.Key,
		Content:  content,
		Entities: entities,
		Language: language,
	}
}

// IDFromKey derives the index document id from an object key by replacing
// path separators. Reprocessing a key always targets the same document.
func IDFromKey(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

// ID returns the document id for d.
func (d Document) ID() string {
	return IDFromKey(d.Key)
}

// SearchResultRow is the projection of a hit returned to search clients.
type SearchResultRow struct {
	Score     float64  `json:"score"`
	Key       string   `json:"s3_key"`
	Language  string   `json:"language"`
	Entities  []Entity `json:"entities"`
	Highlight []string `json:"highlight"`
}

// IndexCompleteEvent announces that a document is visible in the index.
type IndexCompleteEvent struct {
	DocumentID string    `json:"document_id"`
	Bucket     string    `json:"s3_bucket"`
	Key        string    `json:"s3_key"`
	IndexedAt  time.Time `json:"indexed_at"`
}
