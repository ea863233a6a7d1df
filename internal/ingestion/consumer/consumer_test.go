package consumer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/pipeline"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/resilience"
)

var twoAttempts = resilience.RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

type fakeProcessor struct {
	res   *pipeline.Result
	err   error
	seen  []string
	reqID string
}

func (f *fakeProcessor) Process(ctx context.Context, raw []byte) (*pipeline.Result, error) {
	f.seen = append(f.seen, string(raw))
	f.reqID = logger.RequestID(ctx)
	return f.res, f.err
}

func TestHandleMessage(t *testing.T) {
	tests := []struct {
		name      string
		res       *pipeline.Result
		err       error
		wantErr   bool
		wantCalls int
	}{
		{"indexed", &pipeline.Result{Status: pipeline.StatusIndexed, DocumentID: "a_b"}, nil, false, 1},
		{"no text", &pipeline.Result{Status: pipeline.StatusNoText, DocumentID: "a_b"}, nil, false, 1},
		{"malformed event is committed", nil, apperrors.New(apperrors.ErrInvalidEvent, http.StatusBadRequest, "Invalid S3 event format"), false, 1},
		{"dependency failure is retried", nil, apperrors.Wrap(apperrors.ErrDependency, http.StatusInternalServerError, "Error indexing document.", errors.New("timeout")), true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProcessor{res: tt.res, err: tt.err}
			err := HandleMessage(p, twoAttempts)(context.Background(), []byte("docs/a/b"), []byte(`{"bucket":"docs","key":"a/b"}`))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(p.seen) != tt.wantCalls || p.seen[0] != `{"bucket":"docs","key":"a/b"}` {
				t.Errorf("processor saw %v", p.seen)
			}
			if p.reqID != "docs/a/b" {
				t.Errorf("expected message key as request id, got %q", p.reqID)
			}
		})
	}
}

type flakyProcessor struct{ calls int }

func (f *flakyProcessor) Process(ctx context.Context, raw []byte) (*pipeline.Result, error) {
	f.calls++
	if f.calls == 1 {
		return nil, apperrors.Wrap(apperrors.ErrDependency, http.StatusInternalServerError, "Error extracting text from document.", errors.New("throttled"))
	}
	return &pipeline.Result{Status: pipeline.StatusIndexed, DocumentID: "a_b"}, nil
}

func TestHandleMessageRecoversOnRedelivery(t *testing.T) {
	p := &flakyProcessor{}
	if err := HandleMessage(p, twoAttempts)(context.Background(), nil, []byte(`{"bucket":"docs","key":"a/b"}`)); err != nil {
		t.Fatalf("expected the second attempt to succeed, got %v", err)
	}
	if p.calls != 2 {
		t.Errorf("expected 2 calls, got %d", p.calls)
	}
}
