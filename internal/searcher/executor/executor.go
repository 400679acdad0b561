package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/topk"
)

type SearchResult struct {
	Query     string             `json:"query"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
	TermStats map[string]int     `json:"term_stats"`
}

type Executor struct {
	engine *indexer.Engine
	scorer *ranker.Scorer
	logger *slog.Logger
}

func New(engine *indexer.Engine, params ranker.Params) *Executor {
	return &Executor{
		engine: engine,
		scorer: ranker.NewScorer(engine.Index(), engine.Corpus(), params),
		logger: slog.Default().With("component", "query-executor"),
	}
}

func (e *Executor) Engine() *indexer.Engine {
	return e.engine
}

// Params reports the k1 and b the executor ranks with.
func (e *Executor) Params() ranker.Params {
	return e.scorer.Params()
}

// Execute ranks every document against plan and returns the best limit of
// them. TotalHits counts documents with a positive score. A non-positive
// limit returns no results.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}

	idx := e.engine.Index()
	termStats := make(map[string]int)
	for _, term := range plan.Distinct() {
		termStats[term] = idx.DocumentFrequency(term)
	}

	scores := e.scorer.ScoreAll(plan.Terms)
	ranked := topk.Select(scores, limit)
	c := e.engine.Corpus()
	for i := range ranked {
		if doc, ok := c.Document(ranked[i].DocID); ok {
			ranked[i].URL = doc.URL
		}
	}

	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"matched", len(scores.Values),
		"results", len(ranked),
	)
	return &SearchResult{
		Query:     plan.RawQuery,
		TotalHits: len(scores.Values),
		Results:   ranked,
		TermStats: termStats,
	}, nil
}
