// Package pipeline runs one object through extraction, annotation, and the
// index write. Annotation failures degrade to defaults; extraction and index
// failures end the run with a dependency error. Nothing is retried here:
// retries belong to whatever re-delivers the event.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/annotation"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/extraction"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/tracing"
)

// Run statuses. StatusFailed is only ever recorded in the ledger.
const (
	StatusIndexed = "indexed"
	StatusNoText  = "no_text"
	StatusFailed  = "failed"
)

const (
	DetailIndexed = "Document processed and indexed successfully!"
	DetailNoText  = "No text detected."

	ExtractionFailedMessage = "Error extracting text from document."
	IndexFailedMessage      = "Error indexing document."
)

// Result is the outcome of a successful run.
type Result struct {
	Status     string `json:"status"`
	Detail     string `json:"detail"`
	DocumentID string `json:"document_id"`
}

// Run is the bookkeeping record of one run, successful or not.
type Run struct {
	DocumentID    string
	Ref           document.ObjectRef
	Status        string
	Language      string
	EntityCount   int
	ContentLength int
	Detail        string
}

// Ledger records run outcomes.
type Ledger interface {
	Record(ctx context.Context, run Run) error
}

// CacheInvalidator drops cached search results. It is satisfied by
// cache.QueryCache.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// Notifier announces documents that became searchable.
type Notifier interface {
	IndexComplete(ctx context.Context, event document.IndexCompleteEvent) error
}

type Config struct {
	// AnnotationMaxChars caps how much of the text is sent for annotation.
	// The full text is always indexed.
	AnnotationMaxChars int
	FallbackLanguage   string
}

type Pipeline struct {
	cfg       Config
	extractor extraction.Extractor
	annotator annotation.Annotator
	writer    index.Writer
	ledger    Ledger
	notifier  Notifier
	cache     CacheInvalidator
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Pipeline)

func WithLedger(l Ledger) Option { return func(p *Pipeline) { p.ledger = l } }

func WithNotifier(n Notifier) Option { return func(p *Pipeline) { p.notifier = n } }

// WithCacheInvalidator makes every successful index write drop cached search
// results before the run reports success.
func WithCacheInvalidator(c CacheInvalidator) Option { return func(p *Pipeline) { p.cache = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

// New wires a Pipeline. A nil annotator disables annotation: every document
// gets the fallback language and no entities.
func New(cfg Config, extractor extraction.Extractor, annotator annotation.Annotator, writer index.Writer, opts ...Option) *Pipeline {
	if cfg.FallbackLanguage == "" {
		cfg.FallbackLanguage = "en"
	}
	p := &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		annotator: annotator,
		writer:    writer,
		logger:    slog.Default().With("component", "ingest-pipeline"),
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process parses a raw object-created event and runs the object through the
// pipeline. A malformed event fails with ErrInvalidEvent before any external
// call.
func (p *Pipeline) Process(ctx context.Context, raw []byte) (*Result, error) {
	ref, err := ingestion.ParseEvent(raw)
	if err != nil {
		logger.FromContext(ctx).Warn("rejected source event", "error", err)
		p.countRun("invalid_event")
		return nil, err
	}
	return p.ProcessObject(ctx, ref)
}

// ProcessObject runs an already-resolved object through the pipeline.
func (p *Pipeline) ProcessObject(ctx context.Context, ref document.ObjectRef) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest", logger.RequestID(ctx))
	defer func() {
		span.End()
		span.Log(p.logger)
	}()
	docID := document.IDFromKey(ref.Key)
	span.SetAttr("doc_id", docID)
	log := logger.FromContext(ctx).With("bucket", ref.Bucket, "key", ref.Key, "doc_id", docID)
	log.Info("processing object")

	var lines []string
	err := p.stage(ctx, "extract", func(ctx context.Context) error {
		var err error
		lines, err = p.extractor.Extract(ctx, ref)
		return err
	})
	if err != nil {
		log.Error("text extraction failed", "error", err)
		p.countRun("extraction_error")
		p.record(ctx, Run{DocumentID: docID, Ref: ref, Status: StatusFailed, Detail: ExtractionFailedMessage})
		return nil, apperrors.Wrap(apperrors.ErrDependency, http.StatusInternalServerError, ExtractionFailedMessage, err)
	}
	if len(lines) == 0 {
		log.Info("no text detected")
		p.countRun(StatusNoText)
		p.record(ctx, Run{DocumentID: docID, Ref: ref, Status: StatusNoText, Detail: DetailNoText})
		return &Result{Status: StatusNoText, Detail: DetailNoText, DocumentID: docID}, nil
	}
	content := extraction.JoinLines(lines)
	log.Info("text extracted", "lines", len(lines), "chars", len(content))

	language, entities := p.annotate(ctx, log, content)
	doc := document.New(ref, content, language, entities)

	err = p.stage(ctx, "index", func(ctx context.Context) error {
		if err := p.writer.Put(ctx, docID, doc); err != nil {
			return err
		}
		if p.cache == nil {
			return nil
		}
		if _, err := p.cache.Invalidate(ctx); err != nil {
			return fmt.Errorf("document written but search cache not cleared: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("index write failed", "error", err)
		p.countRun("index_error")
		p.record(ctx, Run{DocumentID: docID, Ref: ref, Status: StatusFailed, Language: language, EntityCount: len(entities), ContentLength: len(content), Detail: IndexFailedMessage})
		return nil, apperrors.Wrap(apperrors.ErrDependency, http.StatusInternalServerError, IndexFailedMessage, err)
	}
	log.Info("document indexed", "language", language, "entities", len(doc.Entities))
	p.countRun(StatusIndexed)
	if p.metrics != nil {
		p.metrics.DocsIndexedTotal.Inc()
	}

	p.record(ctx, Run{DocumentID: docID, Ref: ref, Status: StatusIndexed, Language: language, EntityCount: len(doc.Entities), ContentLength: len(content), Detail: DetailIndexed})
	p.notify(ctx, doc)
	return &Result{Status: StatusIndexed, Detail: DetailIndexed, DocumentID: docID}, nil
}

// annotate detects language then entities on the text prefix. Any failure
// yields the fallback language and no entities.
func (p *Pipeline) annotate(ctx context.Context, log *slog.Logger, content string) (string, []document.Entity) {
	if p.annotator == nil {
		return p.cfg.FallbackLanguage, []document.Entity{}
	}
	prefix := annotation.Prefix(content, p.cfg.AnnotationMaxChars)

	var (
		language string
		entities []document.Entity
	)
	err := p.stage(ctx, "annotate", func(ctx context.Context) error {
		var err error
		language, err = p.annotator.DetectLanguage(ctx, prefix)
		if err != nil {
			return err
		}
		entities, err = p.annotator.DetectEntities(ctx, prefix, language)
		return err
	})
	if err != nil {
		log.Warn("annotation failed, using defaults", "error", err, "fallback_language", p.cfg.FallbackLanguage)
		if p.metrics != nil {
			p.metrics.AnnotationFallbacks.Inc()
		}
		return p.cfg.FallbackLanguage, []document.Entity{}
	}
	return language, entities
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartChildSpan(ctx, name)
	err := fn(ctx)
	if err != nil {
		span.Fail(err)
	}
	elapsed := span.End()
	if p.metrics != nil {
		p.metrics.IngestStageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	return err
}

func (p *Pipeline) countRun(outcome string) {
	if p.metrics != nil {
		p.metrics.IngestRunsTotal.WithLabelValues(outcome).Inc()
	}
}

// record and notify never change a run's outcome.
func (p *Pipeline) record(ctx context.Context, run Run) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.Record(ctx, run); err != nil {
		p.logger.Warn("failed to record ingest run", "doc_id", run.DocumentID, "status", run.Status, "error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, doc document.Document) {
	if p.notifier == nil {
		return
	}
	event := document.IndexCompleteEvent{
		DocumentID: doc.ID(),
		Bucket:     doc.Bucket,
		Key:        doc.Key,
		IndexedAt:  p.now().UTC(),
	}
	if err := p.notifier.IndexComplete(ctx, event); err != nil {
		p.logger.Warn("failed to publish index-complete event", "doc_id", event.DocumentID, "error", err)
	}
}
