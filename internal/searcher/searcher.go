// Package searcher is the query path: it validates the query text, runs a
// multi-field match against the index, and projects hits into result rows.
package searcher

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/metrics"
)

// DefaultSize is the number of rows returned per query.
const DefaultSize = 20

const (
	MissingQueryMessage = `Missing required query parameter: "q"`
	EmptyQueryMessage   = `Query parameter "q" cannot be empty.`
	SearchFailedMessage = "An error occurred while searching."
)

// Cache memoizes result rows per query text.
type Cache interface {
	GetOrCompute(ctx context.Context, query string, size int, compute func(ctx context.Context) ([]document.SearchResultRow, error)) ([]document.SearchResultRow, bool, error)
}

type Service struct {
	index   index.Searcher
	cache   Cache
	metrics *metrics.Metrics
	size    int
	logger  *slog.Logger
}

type Option func(*Service)

// WithCache puts c in front of the index.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithSize overrides DefaultSize. Non-positive values are ignored.
func WithSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.size = n
		}
	}
}

func New(idx index.Searcher, opts ...Option) *Service {
	s := &Service{
		index:  idx,
		size:   DefaultSize,
		logger: slog.Default().With("component", "search-service"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Query builds the index query for text.
func (s *Service) Query(text string) index.Query {
	return index.Query{
		Text:           text,
		Fields:         []string{index.FieldContent, index.FieldEntitiesText},
		HighlightField: index.FieldContent,
		Size:           s.size,
	}
}

// Search returns up to the configured number of rows in relevance order.
// Blank text fails with ErrInvalidInput and never reaches the index.
func (s *Service) Search(ctx context.Context, text string) ([]document.SearchResultRow, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if strings.TrimSpace(text) == "" {
		s.countQuery("invalid")
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, EmptyQueryMessage)
	}

	var (
		rows     []document.SearchResultRow
		cacheHit bool
		err      error
	)
	if s.cache != nil {
		rows, cacheHit, err = s.cache.GetOrCompute(ctx, text, s.size, func(ctx context.Context) ([]document.SearchResultRow, error) {
			return s.execute(ctx, text)
		})
	} else {
		rows, err = s.execute(ctx, text)
	}
	if err != nil {
		log.Error("search execution failed", "query", text, "error", err)
		s.countQuery("error")
		return nil, apperrors.Wrap(apperrors.ErrDependency, http.StatusInternalServerError, SearchFailedMessage, err)
	}

	elapsed := time.Since(start)
	log.Info("search completed",
		"query", text,
		"returned", len(rows),
		"cache_hit", cacheHit,
		"latency_ms", elapsed.Milliseconds(),
	)
	if s.metrics != nil {
		cacheStatus := "miss"
		switch {
		case s.cache == nil:
			cacheStatus = "disabled"
		case cacheHit:
			cacheStatus = "hit"
		}
		s.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
		s.metrics.SearchResultsCount.Observe(float64(len(rows)))
	}
	if len(rows) == 0 {
		s.countQuery("zero_result")
	} else {
		s.countQuery("hit")
	}
	return rows, nil
}

func (s *Service) execute(ctx context.Context, text string) ([]document.SearchResultRow, error) {
	hits, err := s.index.Search(ctx, s.Query(text))
	if err != nil {
		return nil, err
	}
	rows := make([]document.SearchResultRow, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, Project(h))
	}
	return rows, nil
}

// Project maps a hit to the row returned to clients. Content and the
// document id are never included.
func Project(h index.Hit) document.SearchResultRow {
	entities := h.Source.Entities
	if entities == nil {
		entities = []document.Entity{}
	}
	return document.SearchResultRow{
		Score:     h.Score,
		Key:       h.Source.Key,
		Language:  h.Source.Language,
		Entities:  entities,
		Highlight: h.Fragments(index.FieldContent),
	}
}

func (s *Service) countQuery(resultType string) {
	if s.metrics != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}
