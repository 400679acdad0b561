// Package loader reads (url, content) pairs from a corpus source in load
// order. Capacity limits are enforced while reading so an oversized source
// is rejected before it is held in memory.
package loader

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
)

// Loader produces the corpus entries in the order that becomes document id
// order.
type Loader interface {
	Load(ctx context.Context) ([]corpus.Entry, error)
	Source() string
}

// New returns the loader selected by cfg.Corpus.Source.
func New(cfg *config.Config) (Loader, error) {
	limits := LimitsFrom(cfg.Corpus)
	switch cfg.Corpus.Source {
	case "file", "":
		return NewFileLoader(cfg.Corpus.Path, cfg.Corpus.Format, limits), nil
	case "postgres":
		return NewPostgresLoader(cfg.Postgres, cfg.Corpus.Query, limits), nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"unknown corpus source %q", cfg.Corpus.Source)
	}
}

func LimitsFrom(c config.CorpusConfig) corpus.Limits {
	return corpus.Limits{
		MaxDocuments:     c.MaxDocuments,
		MaxURLLength:     c.MaxURLLength,
		MaxContentLength: c.MaxContentLength,
		Workers:          c.BuildWorkers,
	}
}

// collector accumulates entries and applies the limits as they arrive.
type collector struct {
	limits  corpus.Limits
	entries []corpus.Entry
}

func (c *collector) add(url, content string) error {
	n := len(c.entries)
	if c.limits.MaxDocuments > 0 && n >= c.limits.MaxDocuments {
		return apperrors.Newf(apperrors.ErrCapacityExceeded, http.StatusRequestEntityTooLarge,
			"document count exceeds limit %d", c.limits.MaxDocuments)
	}
	if c.limits.MaxURLLength > 0 && len(url) > c.limits.MaxURLLength {
		return fmt.Errorf("document %d: %w", n,
			apperrors.Capacityf("url length", len(url), c.limits.MaxURLLength))
	}
	if c.limits.MaxContentLength > 0 && len(content) > c.limits.MaxContentLength {
		return fmt.Errorf("document %d: %w", n,
			apperrors.Capacityf("content length", len(content), c.limits.MaxContentLength))
	}
	c.entries = append(c.entries, corpus.Entry{URL: url, Content: content})
	return nil
}
