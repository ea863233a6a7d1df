package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index"
)

func TestPutUsesDocumentIDAndWaitsForRefresh(t *testing.T) {
	var gotPath, gotQuery, gotMethod string
	var gotDoc document.Document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotDoc); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Index: "documents"})
	doc := document.New(document.ObjectRef{Bucket: "b", Key: "uploads/2024/a.png"}, "hello\n", "en", nil)
	if err := c.Put(context.Background(), doc.ID(), doc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("expected PUT, got %s", gotMethod)
	}
	if gotPath != "/documents/_doc/uploads_2024_a.png" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotQuery != "refresh=wait_for" {
		t.Errorf("expected refresh=wait_for, got %q", gotQuery)
	}
	if gotDoc.Key != "uploads/2024/a.png" || gotDoc.Entities == nil {
		t.Errorf("unexpected stored document %+v", gotDoc)
	}
}

func TestPutSurfacesEngineErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"cluster_block_exception"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	err := New(Options{BaseURL: srv.URL, Index: "documents"}).Put(context.Background(), "a", document.Document{})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestSearchBuildsMultiMatchWithHighlight(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/documents/_search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.Write([]byte(`{"hits":{"hits":[
			{"_id":"r_q1.png","_score":2.5,
			 "_source":{"s3_bucket":"b","s3_key":"r/q1.png","content":"revenue grew\n","language":"en","entities":[{"text":"Q1","type":"DATE"}]},
			 "highlight":{"content":["<em>revenue</em> grew"]}},
			{"_id":"other","_score":1.0,"_source":{"s3_key":"other","content":"x","language":"en","entities":[]}}
		]}}`))
	}))
	defer srv.Close()

	hits, err := New(Options{BaseURL: srv.URL, Index: "documents"}).Search(context.Background(), index.Query{
		Text:           "revenue",
		Fields:         []string{index.FieldContent, index.FieldEntitiesText},
		HighlightField: index.FieldContent,
		Size:           20,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if body["size"].(float64) != 20 {
		t.Errorf("expected size 20, got %v", body["size"])
	}
	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	if mm["query"] != "revenue" {
		t.Errorf("unexpected query %v", mm["query"])
	}
	if fields := mm["fields"].([]any); len(fields) != 2 || fields[0] != "content" || fields[1] != "entities.text" {
		t.Errorf("unexpected fields %v", fields)
	}
	hl := body["highlight"].(map[string]any)["fields"].(map[string]any)
	if _, ok := hl["content"]; !ok {
		t.Errorf("expected content highlight, got %v", hl)
	}

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Score != 2.5 || hits[0].Source.Key != "r/q1.png" || hits[0].Source.Entities[0].Type != "DATE" {
		t.Errorf("unexpected first hit %+v", hits[0])
	}
	if got := hits[0].Fragments(index.FieldContent); len(got) != 1 || got[0] != "<em>revenue</em> grew" {
		t.Errorf("unexpected fragments %v", got)
	}
	if got := hits[1].Fragments(index.FieldContent); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil fragments, got %#v", got)
	}
}

func TestEnsureIndexCreatesMappingOnce(t *testing.T) {
	exists := false
	creates := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			if exists {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			creates++
			raw, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(raw), `"s3_key":{"type":"keyword"}`) {
				t.Errorf("mapping missing keyword s3_key: %s", raw)
			}
			exists = true
			w.Write([]byte(`{"acknowledged":true}`))
		}
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Index: "documents"})
	for i := 0; i < 2; i++ {
		if err := c.EnsureIndex(context.Background()); err != nil {
			t.Fatalf("EnsureIndex: %v", err)
		}
	}
	if creates != 1 {
		t.Errorf("expected 1 create, got %d", creates)
	}
}

func TestSignedRequestsCarryAuthorization(t *testing.T) {
	var auth, hash string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		hash = r.Header.Get("X-Amz-Content-Sha256")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	awsCfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
	}
	c := New(Options{BaseURL: srv.URL, Index: "documents"}, WithSigV4(awsCfg, "es"))
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKID/") || !strings.Contains(auth, "/us-east-1/es/aws4_request") {
		t.Errorf("unexpected authorization header %q", auth)
	}
	if hash == "" {
		t.Error("expected payload hash header")
	}
}

func TestBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Index: "documents", Username: "admin", Password: "secret"})
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
