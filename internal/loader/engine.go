package loader

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/resilience"
)

// LoadEngine reads the configured corpus and builds its index within
// cfg.Corpus.LoadTimeout. On failure nothing is returned to search against.
func LoadEngine(ctx context.Context, cfg *config.Config) (*indexer.Engine, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	var engine *indexer.Engine
	err = resilience.WithTimeout(ctx, cfg.Corpus.LoadTimeout, "corpus load", func(ctx context.Context) error {
		entries, err := l.Load(ctx)
		if err != nil {
			return err
		}
		engine, err = indexer.NewEngine(ctx, cfg.Corpus, entries)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", l.Source(), err)
	}
	return engine, nil
}
