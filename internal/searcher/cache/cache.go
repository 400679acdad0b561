// Package cache memoizes search results keyed by index generation, the BM25
// parameters, the query's distinct terms and the result limit.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/ranker"
)

const keyPrefix = "bm25:search:"

type QueryCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(store Store, ttl time.Duration) *QueryCache {
	return &QueryCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Key is stable under term order and repetition, since scoring sums over
// distinct terms only. Searchers sharing a store with different k1 or b get
// disjoint keys.
func Key(generation string, params ranker.Params, plan *parser.QueryPlan, limit int) string {
	terms := plan.Distinct()
	sort.Strings(terms)
	raw := strings.Join([]string{
		generation,
		strconv.FormatFloat(params.K1, 'g', -1, 64),
		strconv.FormatFloat(params.B, 'g', -1, 64),
		strings.Join(terms, "\x00"),
		strconv.Itoa(limit),
	}, "\x01")
	sum := sha256.Sum256([]byte(raw))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

func (c *QueryCache) get(ctx context.Context, key string) (*executor.SearchResult, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

func (c *QueryCache) set(ctx context.Context, key string, result *executor.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for the query or runs compute once
// per key across concurrent callers. The bool reports a cache hit. Store
// failures degrade to computing the result.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	generation string,
	params ranker.Params,
	plan *parser.QueryPlan,
	limit int,
	compute func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	key := Key(generation, params, plan, limit)
	if result, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		c.logger.Debug("cache hit", "query", plan.RawQuery, "key", key)
		result.Query = plan.RawQuery
		return result, true, nil
	}
	c.misses.Add(1)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	shared := val.(*executor.SearchResult)
	out := *shared
	out.Query = plan.RawQuery
	return &out, false, nil
}

// Invalidate drops every cached result and returns how many were removed.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.Purge(ctx, keyPrefix)
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
