package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/metrics"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
	Engine() *indexer.Engine
	Params() ranker.Params
}

type Handler struct {
	executor SearchExecutor
	cache    *cache.QueryCache
	tracker  analytics.Tracker
	metrics  *metrics.Metrics
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// New wires the search endpoints. queryCache, tracker and m may be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, tracker analytics.Tracker, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	return &Handler{
		executor: exec,
		cache:    queryCache,
		tracker:  tracker,
		metrics:  m,
		cfg:      cfg,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/corpus/stats", h.CorpusStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search answers GET /api/v1/search?q=...&limit=N. An empty q is a valid
// query that matches nothing, so every document is returned with score 0
// in load order.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	params := r.URL.Query()
	if !params.Has("q") {
		h.fail(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	query := params.Get("q")

	limit, err := h.parseLimit(params.Get("limit"))
	if err != nil {
		h.fail(w, err)
		return
	}

	plan, err := parser.Parse(query, h.cfg.MaxQueryLength)
	if err != nil {
		h.fail(w, err)
		return
	}

	engine := h.executor.Engine()
	var result *executor.SearchResult
	cacheHit := false
	compute := func() (*executor.SearchResult, error) {
		return h.executor.Execute(ctx, plan, limit)
	}
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, engine.Generation(), h.executor.Params(), plan, limit, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		log.Error("search execution failed", "query", query, "error", err)
		h.observe("error", "", 0, time.Since(start))
		h.fail(w, err)
		return
	}

	latency := time.Since(start)
	log.Info("search completed",
		"query", query,
		"terms", len(plan.Terms),
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)

	event := analytics.SearchEvent{
		Query:      query,
		Terms:      plan.Distinct(),
		TotalHits:  result.TotalHits,
		Returned:   len(result.Results),
		LatencyMs:  float64(latency.Microseconds()) / 1000,
		CacheHit:   cacheHit,
		Generation: engine.Generation(),
		Timestamp:  time.Now().UTC(),
		RequestID:  logger.RequestID(ctx),
	}
	event.Classify()
	h.observe(string(event.Type), cacheStatus(h.cache != nil, cacheHit), result.TotalHits, latency)
	if h.tracker != nil {
		h.tracker.Track(event)
	}

	h.writeJSON(w, http.StatusOK, result)
}

// parseLimit applies the default for an absent limit and caps it at
// MaxResults. Zero is allowed and yields no results.
func (h *Handler) parseLimit(raw string) (int, error) {
	n := h.cfg.DefaultLimit
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit %q is not an integer", raw)
		}
		if parsed < 0 {
			return 0, apperrors.Newf(apperrors.ErrInvalidLimit, http.StatusBadRequest, "limit must not be negative, got %d", parsed)
		}
		n = parsed
	}
	if h.cfg.MaxResults > 0 && n > h.cfg.MaxResults {
		n = h.cfg.MaxResults
	}
	return n, nil
}

func cacheStatus(enabled, hit bool) string {
	switch {
	case !enabled:
		return "disabled"
	case hit:
		return "hit"
	default:
		return "miss"
	}
}

func (h *Handler) observe(resultType, status string, totalHits int, latency time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	if resultType == "error" {
		return
	}
	h.metrics.SearchLatency.WithLabelValues(status).Observe(latency.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(totalHits))
	switch status {
	case "hit":
		h.metrics.CacheHitsTotal.Inc()
	case "miss":
		h.metrics.CacheMissesTotal.Inc()
	}
}

type corpusStats struct {
	indexer.Summary
	TopTerms []termCount `json:"top_terms"`
}

type termCount struct {
	Term    string `json:"term"`
	DocFreq int    `json:"doc_freq"`
}

// CorpusStats reports the loaded corpus and its most widespread terms;
// ?top=N controls how many (default 10).
func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	top := 10
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.fail(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "top %q must be a non-negative integer", raw))
			return
		}
		top = n
	}
	engine := h.executor.Engine()
	stats := corpusStats{
		Summary:  engine.Summary(),
		TopTerms: termCounts(engine.Index().TopTerms(top)),
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func termCounts(entries []index.TermEntry) []termCount {
	out := make([]termCount, len(entries))
	for i, e := range entries {
		out[i] = termCount{Term: e.Term, DocFreq: e.DocFreq}
	}
	return out
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cache invalidation failed"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// fail maps err to its status code. Messages of unclassified errors are
// not exposed.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := "internal error"
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		msg = appErr.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
		msg = "request cancelled"
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}
