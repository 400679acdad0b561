// Package indexer builds the searchable state of a corpus: documents and
// statistics, the inverted index and a fingerprint of the loaded content.
// An Engine is built once and never modified afterwards.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/tracing"
)

type Engine struct {
	corpus     *corpus.Corpus
	index      *index.InvertedIndex
	generation string
	builtAt    time.Time
	buildTime  time.Duration
	span       *tracing.Span
}

// NewEngine tokenizes and indexes entries under the limits in cfg. Any
// error aborts the build; no partially built engine is returned.
func NewEngine(ctx context.Context, cfg config.CorpusConfig, entries []corpus.Entry) (*Engine, error) {
	logger := slog.Default().With("component", "indexer")
	start := time.Now()
	generation := fingerprint(entries)
	ctx, span := tracing.StartSpan(ctx, "index_build", generation)
	defer span.End()

	limits := corpus.Limits{
		MaxDocuments:     cfg.MaxDocuments,
		MaxURLLength:     cfg.MaxURLLength,
		MaxContentLength: cfg.MaxContentLength,
		Workers:          cfg.BuildWorkers,
	}
	_, tokSpan := tracing.StartChildSpan(ctx, "tokenize")
	c, tokens, err := corpus.Build(ctx, entries, limits)
	tokSpan.End()
	if err != nil {
		span.SetAttr("error", err.Error())
		return nil, fmt.Errorf("building corpus: %w", err)
	}
	tokSpan.SetAttr("documents", c.Len())
	tokSpan.SetAttr("tokens", c.TotalTokens())

	_, idxSpan := tracing.StartChildSpan(ctx, "invert")
	idx, err := index.Build(ctx, c.Documents(), tokens, cfg.BuildWorkers)
	idxSpan.End()
	if err != nil {
		span.SetAttr("error", err.Error())
		return nil, fmt.Errorf("building inverted index: %w", err)
	}
	idxSpan.SetAttr("terms", idx.NumTerms())

	e := &Engine{
		corpus:     c,
		index:      idx,
		generation: generation,
		builtAt:    time.Now().UTC(),
		buildTime:  time.Since(start),
		span:       span,
	}
	stats := c.Stats()
	logger.Info("index built",
		"generation", generation,
		"documents", stats.NumDocuments,
		"terms", idx.NumTerms(),
		"avg_doc_length", stats.AvgDocumentLength,
		"duration_ms", e.buildTime.Milliseconds(),
	)
	return e, nil
}

func (e *Engine) Corpus() *corpus.Corpus {
	return e.corpus
}

func (e *Engine) Index() *index.InvertedIndex {
	return e.index
}

func (e *Engine) Stats() corpus.Stats {
	return e.corpus.Stats()
}

// Generation identifies the loaded content. Two engines built from the same
// entries in the same order share a generation.
func (e *Engine) Generation() string {
	return e.generation
}

func (e *Engine) BuildDuration() time.Duration {
	return e.buildTime
}

// BuildSpan returns the finished trace of the build phases.
func (e *Engine) BuildSpan() *tracing.Span {
	return e.span
}

// Summary is the reporting view of an engine.
type Summary struct {
	Generation        string    `json:"generation"`
	NumDocuments      int       `json:"num_documents"`
	NumTerms          int       `json:"num_terms"`
	TotalTokens       int64     `json:"total_tokens"`
	AvgDocumentLength float64   `json:"average_document_length"`
	BuiltAt           time.Time `json:"built_at"`
	BuildMs           int64     `json:"build_ms"`

	Phases []tracing.Phase `json:"phases"`
}

func (e *Engine) Summary() Summary {
	stats := e.corpus.Stats()
	return Summary{
		Generation:        e.generation,
		NumDocuments:      stats.NumDocuments,
		NumTerms:          e.index.NumTerms(),
		TotalTokens:       e.index.TotalTokens(),
		AvgDocumentLength: stats.AvgDocumentLength,
		BuiltAt:           e.builtAt,
		BuildMs:           e.buildTime.Milliseconds(),
		Phases:            e.span.Phases(),
	}
}

func fingerprint(entries []corpus.Entry) string {
	h := sha256.New()
	sep := []byte{0}
	for _, e := range entries {
		h.Write([]byte(e.URL))
		h.Write(sep)
		h.Write([]byte(e.Content))
		h.Write(sep)
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}
