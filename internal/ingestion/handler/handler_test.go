package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/extraction"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index/memory"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/pipeline"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
)

type staticExtractor []string

func (s staticExtractor) Extract(context.Context, document.ObjectRef) ([]string, error) {
	return s, nil
}

type brokenExtractor struct{}

func (brokenExtractor) Extract(context.Context, document.ObjectRef) ([]string, error) {
	return nil, errors.New("ProvisionedThroughputExceededException")
}

func newServer(p Processor) *httptest.Server {
	mux := http.NewServeMux()
	New(p).Routes(mux)
	return httptest.NewServer(mux)
}

func post(t *testing.T, url, body string) (int, map[string]string) {
	t.Helper()
	resp, err := http.Post(url+"/api/v1/events", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, out
}

func TestIngestIndexesDocument(t *testing.T) {
	idx := memory.New()
	p := pipeline.New(pipeline.Config{}, staticExtractor{"Revenue grew 10%", "Net income up"}, nil, idx)
	srv := newServer(p)
	defer srv.Close()

	status, body := post(t, srv.URL, `{"Records":[{"s3":{"bucket":{"name":"docs"},"object":{"key":"reports%2Fq1+report.pdf"}}}]}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["status"] != pipeline.StatusIndexed || body["document_id"] != "reports_q1 report.pdf" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := idx.Get("reports_q1 report.pdf"); !ok {
		t.Error("document not in index")
	}
}

func TestIngestStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		extractor  extraction.Extractor
		body       string
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{"malformed event", staticExtractor{"x"}, `{"nope":true}`, http.StatusBadRequest, "error", "Invalid S3 event format"},
		{"not json", staticExtractor{"x"}, `garbage`, http.StatusBadRequest, "error", "Invalid S3 event format"},
		{"no text", staticExtractor{}, `{"bucket":"docs","key":"blank.png"}`, http.StatusOK, "detail", pipeline.DetailNoText},
		{"extraction failure", brokenExtractor{}, `{"bucket":"docs","key":"a.png"}`, http.StatusInternalServerError, "error", pipeline.ExtractionFailedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(pipeline.New(pipeline.Config{}, tt.extractor, nil, memory.New()))
			defer srv.Close()
			status, body := post(t, srv.URL, tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if body[tt.wantKey] != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.wantKey, body[tt.wantKey], tt.wantValue)
			}
		})
	}
}

type stubProcessor struct {
	res *pipeline.Result
	err error
}

func (s stubProcessor) Process(context.Context, []byte) (*pipeline.Result, error) {
	return s.res, s.err
}

func TestLambdaHandler(t *testing.T) {
	tests := []struct {
		name       string
		p          Processor
		startupErr error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "indexed",
			p:          stubProcessor{res: &pipeline.Result{Status: pipeline.StatusIndexed, Detail: pipeline.DetailIndexed, DocumentID: "a_b"}},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"indexed","detail":"Document processed and indexed successfully!","document_id":"a_b"}`,
		},
		{
			name:       "not configured",
			p:          stubProcessor{},
			startupErr: apperrors.New(apperrors.ErrNotConfigured, http.StatusInternalServerError, "OpenSearch domain not configured."),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"OpenSearch domain not configured."}`,
		},
		{
			name:       "invalid event",
			p:          stubProcessor{err: apperrors.New(apperrors.ErrInvalidEvent, http.StatusBadRequest, "Invalid S3 event format")},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid S3 event format"}`,
		},
		{
			name:       "unclassified error does not leak",
			p:          stubProcessor{err: errors.New("dial tcp 10.0.0.1:443: refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal error"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := LambdaHandler(tt.p, tt.startupErr)(context.Background(), json.RawMessage(`{}`))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if resp.StatusCode != tt.wantStatus || resp.Body != tt.wantBody {
				t.Errorf("got %d %s, want %d %s", resp.StatusCode, resp.Body, tt.wantStatus, tt.wantBody)
			}
		})
	}
}
