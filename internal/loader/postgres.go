package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/postgres"
)

// PostgresLoader reads the corpus with a query returning (url, content)
// rows. The query's ORDER BY defines document id order.
type PostgresLoader struct {
	cfg    config.PostgresConfig
	query  string
	limits corpus.Limits
}

func NewPostgresLoader(cfg config.PostgresConfig, query string, limits corpus.Limits) *PostgresLoader {
	return &PostgresLoader{cfg: cfg, query: query, limits: limits}
}

func (l *PostgresLoader) Source() string {
	return fmt.Sprintf("postgres:%s:%d/%s", l.cfg.Host, l.cfg.Port, l.cfg.Database)
}

func (l *PostgresLoader) Load(ctx context.Context) ([]corpus.Entry, error) {
	client, err := postgres.New(ctx, l.cfg)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrIO, http.StatusInternalServerError, "connecting: %v", err)
	}
	defer client.Close()

	var entries []corpus.Entry
	err = client.InReadTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, l.query)
		if err != nil {
			return apperrors.Newf(apperrors.ErrIO, http.StatusInternalServerError, "querying corpus: %v", err)
		}
		defer rows.Close()
		entries, err = ReadRows(rows, l.limits)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading corpus from %s: %w", l.Source(), err)
	}
	slog.Default().With("component", "loader").Info("corpus rows loaded",
		"source", l.Source(),
		"documents", len(entries),
	)
	return entries, nil
}

// Rows is the part of *sql.Rows ReadRows uses.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// ReadRows scans (url, content) rows, stopping at the first limit violation.
// NULL columns read as empty strings.
func ReadRows(rows Rows, limits corpus.Limits) ([]corpus.Entry, error) {
	c := &collector{limits: limits}
	for rows.Next() {
		var url, content sql.NullString
		if err := rows.Scan(&url, &content); err != nil {
			return nil, apperrors.Newf(apperrors.ErrIO, http.StatusInternalServerError, "scanning row %d: %v", len(c.entries), err)
		}
		if err := c.add(url.String, content.String); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrIO, http.StatusInternalServerError, "iterating rows: %v", err)
	}
	return c.entries, nil
}
