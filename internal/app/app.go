// Package app assembles the collaborators shared by the service binaries
// from configuration: the index backend, the OCR and annotation adapters,
// and the ingestion pipeline with its optional ledger, notifier, and search
// cache invalidation.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/annotation"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/annotation/comprehend"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/extraction"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/extraction/tesseract"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/extraction/textract"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index/memory"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index/opensearch"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/ledger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/notify"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/resilience"
)

// IndexBackend is what every process needs from the index.
type IndexBackend interface {
	index.Writer
	index.Searcher
	Ping(ctx context.Context) error
}

// NewIndex validates the index settings and returns the configured backend.
func NewIndex(cfg *config.Config, awsCfg aws.Config) (IndexBackend, error) {
	if err := cfg.ValidateIndex(); err != nil {
		return nil, err
	}
	if cfg.OpenSearch.Backend == config.BackendMemory {
		slog.Warn("using in-process memory index; documents are not shared between processes")
		return memory.New(), nil
	}
	return opensearch.NewFromConfig(cfg.OpenSearch, awsCfg), nil
}

// NewExtractor returns the configured OCR engine.
func NewExtractor(cfg config.ExtractionConfig, awsCfg aws.Config) (extraction.Extractor, error) {
	switch cfg.Engine {
	case config.EngineTextract:
		return textract.NewFromConfig(awsCfg), nil
	case config.EngineTesseract:
		return tesseract.NewFromConfig(awsCfg, cfg.Languages), nil
	default:
		return nil, apperrors.Newf(apperrors.ErrNotConfigured, http.StatusInternalServerError, "unknown extraction engine %q", cfg.Engine)
	}
}

// NewAnnotator returns the Comprehend annotator, behind a circuit breaker
// unless BreakerThreshold is zero. It returns nil when annotation is
// disabled.
func NewAnnotator(cfg config.AnnotationConfig, awsCfg aws.Config) annotation.Annotator {
	if !cfg.Enabled {
		return nil
	}
	a := comprehend.NewFromConfig(awsCfg)
	if cfg.BreakerThreshold <= 0 {
		return a
	}
	return annotation.Guard(a, resilience.NewBreaker("comprehend", resilience.BreakerConfig{
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         cfg.BreakerCooldown,
	}))
}

// Ingest holds a wired pipeline and the resources behind it.
type Ingest struct {
	Pipeline *pipeline.Pipeline
	Index    IndexBackend
	Ledger   *ledger.Store

	db       *postgres.Client
	producer *kafka.Producer
	redis    *pkgredis.Client
}

// NewIngest wires the pipeline. The ledger and the index-complete notifier
// are optional: when their backends are disabled or unreachable the
// pipeline runs without them. The search cache is not: with
// search.cacheEnabled set, every write must clear it, so an unreachable
// Redis is a startup error.
func NewIngest(ctx context.Context, cfg *config.Config, awsCfg aws.Config, m *metrics.Metrics) (*Ingest, error) {
	idx, err := NewIndex(cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(cfg.Extraction, awsCfg)
	if err != nil {
		return nil, err
	}

	in := &Ingest{Index: idx}
	opts := []pipeline.Option{pipeline.WithMetrics(m)}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, ingest ledger disabled", "error", err)
		} else {
			store := ledger.New(db)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Warn("ledger schema setup failed, ingest ledger disabled", "error", err)
				db.Close()
			} else {
				in.db, in.Ledger = db, store
				opts = append(opts, pipeline.WithLedger(store))
			}
		}
	}
	if cfg.Search.CacheEnabled {
		rc, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("search cache enabled but redis unreachable: %w", err)
		}
		in.redis = rc
		opts = append(opts, pipeline.WithCacheInvalidator(cache.New(rc, cfg.Redis.CacheTTL, m)))
	}
	if cfg.Kafka.Enabled {
		in.producer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		opts = append(opts, pipeline.WithNotifier(notify.NewKafka(in.producer)))
	}

	in.Pipeline = pipeline.New(pipeline.Config{
		AnnotationMaxChars: cfg.Annotation.MaxChars,
		FallbackLanguage:   cfg.Annotation.FallbackLanguage,
	}, extractor, NewAnnotator(cfg.Annotation, awsCfg), idx, opts...)

	slog.Info("ingestion pipeline ready",
		"index_backend", cfg.OpenSearch.Backend,
		"extraction_engine", cfg.Extraction.Engine,
		"annotation", cfg.Annotation.Enabled,
		"ledger", in.Ledger != nil,
		"notifier", in.producer != nil,
		"cache_invalidation", in.redis != nil,
	)
	return in, nil
}

// RegisterChecks adds the pipeline's dependencies to checker.
func (in *Ingest) RegisterChecks(checker *health.Checker) {
	checker.Register("index", health.PingCheck(in.Index.Ping, true))
	if in.db != nil {
		checker.Register("postgres", health.PingCheck(in.db.Ping, false))
	} else {
		checker.Register("postgres", health.Disabled)
	}
	if in.redis != nil {
		checker.Register("redis", health.PingCheck(in.redis.Ping, true))
	} else {
		checker.Register("redis", health.Disabled)
	}
}

// Close releases the ledger and cache connections and flushes the notifier.
func (in *Ingest) Close() {
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			slog.Error("closing redis client", "error", err)
		}
	}
	if in.producer != nil {
		if err := in.producer.Close(); err != nil {
			slog.Error("closing kafka producer", "error", err)
		}
	}
	if in.db != nil {
		in.db.Close()
	}
}
