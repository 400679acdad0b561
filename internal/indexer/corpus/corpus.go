// Package corpus holds the documents of a loaded corpus together with their
// token counts and the corpus-wide statistics BM25 needs. Raw content is
// tokenized once during Build and is not retained.
package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
)

// Entry is one (url, content) pair as produced by a loader.
type Entry struct {
	URL     string
	Content string
}

// Document is an indexed document. ID is its position in load order.
type Document struct {
	ID     int    `json:"id"`
	URL    string `json:"url"`
	Length int    `json:"length"`
}

// Stats are computed once over all documents.
type Stats struct {
	NumDocuments      int     `json:"num_documents"`
	AvgDocumentLength float64 `json:"average_document_length"`
}

// Limits bound what Build accepts. A non-positive field disables its check.
type Limits struct {
	MaxDocuments     int
	MaxURLLength     int
	MaxContentLength int
	Workers          int
}

// Corpus is immutable after Build returns.
type Corpus struct {
	docs        []Document
	stats       Stats
	totalTokens int64
}

// Build validates entries against limits, tokenizes every content exactly
// once and assigns ids in input order. It returns the corpus and the token
// sequence of each document, indexed by document id, for the index builder.
// No partial corpus is returned on error.
func Build(ctx context.Context, entries []Entry, limits Limits) (*Corpus, [][]string, error) {
	if len(entries) == 0 {
		return nil, nil, apperrors.New(apperrors.ErrEmptyCorpus, http.StatusServiceUnavailable, "no documents to index")
	}
	if limits.MaxDocuments > 0 && len(entries) > limits.MaxDocuments {
		return nil, nil, apperrors.Capacityf("document count", len(entries), limits.MaxDocuments)
	}
	for i, e := range entries {
		if limits.MaxURLLength > 0 && len(e.URL) > limits.MaxURLLength {
			return nil, nil, fmt.Errorf("document %d: %w", i,
				apperrors.Capacityf("url length", len(e.URL), limits.MaxURLLength))
		}
		if limits.MaxContentLength > 0 && len(e.Content) > limits.MaxContentLength {
			return nil, nil, fmt.Errorf("document %d: %w", i,
				apperrors.Capacityf("content length", len(e.Content), limits.MaxContentLength))
		}
	}

	tokens := make([][]string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(limits.Workers))
	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tokens[i] = tokenizer.Tokenize(entries[i].Content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("tokenizing corpus: %w", err)
	}

	docs := make([]Document, len(entries))
	lengths := make([]int, len(entries))
	var total int64
	for i, e := range entries {
		docs[i] = Document{ID: i, URL: e.URL, Length: len(tokens[i])}
		lengths[i] = len(tokens[i])
		total += int64(len(tokens[i]))
	}
	c := &Corpus{
		docs:        docs,
		stats:       ComputeStats(lengths),
		totalTokens: total,
	}
	slog.Default().With("component", "corpus").Debug("corpus built",
		"documents", c.stats.NumDocuments,
		"total_tokens", total,
		"avg_doc_length", c.stats.AvgDocumentLength,
	)
	return c, tokens, nil
}

// ComputeStats derives corpus statistics from the full list of document
// lengths. The average is 0 for an empty list.
func ComputeStats(lengths []int) Stats {
	if len(lengths) == 0 {
		return Stats{}
	}
	var sum int64
	for _, l := range lengths {
		sum += int64(l)
	}
	return Stats{
		NumDocuments:      len(lengths),
		AvgDocumentLength: float64(sum) / float64(len(lengths)),
	}
}

func (c *Corpus) Stats() Stats {
	return c.stats
}

func (c *Corpus) Len() int {
	return len(c.docs)
}

func (c *Corpus) TotalTokens() int64 {
	return c.totalTokens
}

// Document returns the document with the given id.
func (c *Corpus) Document(id int) (Document, bool) {
	if id < 0 || id >= len(c.docs) {
		return Document{}, false
	}
	return c.docs[id], true
}

// Length returns the token count of document id, or 0 if it does not exist.
func (c *Corpus) Length(id int) int {
	if id < 0 || id >= len(c.docs) {
		return 0
	}
	return c.docs[id].Length
}

// Documents returns a copy of all documents in id order.
func (c *Corpus) Documents() []Document {
	out := make([]Document, len(c.docs))
	copy(out, c.docs)
	return out
}

func workers(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
