// Package cache memoizes search result rows in Redis. Concurrent misses for
// the same query collapse into one index call. Entry keys carry a generation
// number; Invalidate bumps it, so a result computed before an index write
// can never be served after it.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/metrics"
)

const (
	keyPrefix     = "search:"
	generationKey = "search-generation"
)

// Store is the key-value backend, satisfied by pkg/redis.Client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) get(ctx context.Context, key string) ([]document.SearchResultRow, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var rows []document.SearchResultRow
	if err := json.Unmarshal(data, &rows); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return rows, true
}

func (c *QueryCache) set(ctx context.Context, key string, rows []document.SearchResultRow) {
	data, err := json.Marshal(rows)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) generation(ctx context.Context) (int64, error) {
	data, found, err := c.store.Get(ctx, generationKey)
	if err != nil || !found {
		return 0, err
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing cache generation %q: %w", data, err)
	}
	return gen, nil
}

// GetOrCompute returns the cached rows for query, or computes and stores
// them. Store errors degrade to a miss; when the generation cannot be read
// the rows are computed and not stored. Compute errors are never cached.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	size int,
	compute func(ctx context.Context) ([]document.SearchResultRow, error),
) ([]document.SearchResultRow, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Error("cache generation read failed, bypassing cache", "error", err)
		c.recordMiss()
		rows, err := compute(ctx)
		return rows, false, err
	}
	key := buildKey(gen, query, size)
	if rows, ok := c.get(ctx, key); ok {
		c.recordHit()
		c.logger.Debug("cache hit", "query", query, "key", key)
		return rows, true, nil
	}
	c.recordMiss()

	val, err, _ := c.group.Do(key, func() (any, error) {
		if rows, ok := c.get(ctx, key); ok {
			return rows, nil
		}
		rows, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, rows)
		return rows, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]document.SearchResultRow), false, nil
}

// Invalidate starts a new generation, then removes the entries of earlier
// ones. Once the generation is bumped no earlier entry is reachable, so a
// failed cleanup is only logged.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	gen, err := c.store.Incr(ctx, generationKey)
	if err != nil {
		return 0, fmt.Errorf("invalidating cache: %w", err)
	}
	deleted, err := c.store.DeleteByPrefix(ctx, keyPrefix)
	if err != nil {
		c.logger.Warn("stale cache cleanup failed", "generation", gen, "error", err)
	}
	c.logger.Info("cache invalidated", "generation", gen, "keys_deleted", deleted)
	return deleted, nil
}

// HandleIndexComplete returns a MessageHandler that invalidates the cache for
// every index-complete event. A new or replaced document can change the
// results of any query, so nothing narrower is safe.
func (c *QueryCache) HandleIndexComplete() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[document.IndexCompleteEvent](value)
		if err != nil {
			c.logger.Error("failed to decode index-complete event", "key", string(key), "error", err)
			return nil
		}
		if _, err := c.Invalidate(ctx); err != nil {
			return err
		}
		c.logger.Debug("cache invalidated for document", "doc_id", event.DocumentID)
		return nil
	}
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func buildKey(gen int64, query string, size int) string {
	raw := fmt.Sprintf("%s:size=%d", normalizeQuery(query), size)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%d:%x", keyPrefix, gen, hash[:16])
}

// normalizeQuery lower-cases and sorts the query words. A multi_match query
// ignores case and word order, so such variants share one entry.
func normalizeQuery(query string) string {
	words := strings.Fields(strings.ToLower(query))
	sort.Strings(words)
	return strings.Join(words, " ")
}
