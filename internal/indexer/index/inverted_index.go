// Package index builds the immutable inverted index over a tokenized corpus.
package index

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/corpus"
)

// InvertedIndex maps each term to its posting list and document frequency.
// It has no mutating methods and is safe for concurrent readers.
type InvertedIndex struct {
	terms       map[string]*postingList
	numDocs     int
	totalTokens int64
}

// Build counts terms per document, optionally in parallel, then merges the
// per-document counts into the shared posting lists in document-id order.
// tokens[i] must be the token sequence of docs[i].
func Build(ctx context.Context, docs []corpus.Document, tokens [][]string, workers int) (*InvertedIndex, error) {
	if len(docs) != len(tokens) {
		return nil, fmt.Errorf("index build: %d documents but %d token sequences", len(docs), len(tokens))
	}
	for i, d := range docs {
		if d.ID != i {
			return nil, fmt.Errorf("index build: document at position %d has id %d", i, d.ID)
		}
		if d.Length != len(tokens[i]) {
			return nil, fmt.Errorf("index build: document %d length %d does not match %d tokens", i, d.Length, len(tokens[i]))
		}
	}

	termCounts := make([]map[string]int, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)
	for i := range tokens {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			counts := make(map[string]int, len(tokens[i])/2+1)
			for _, term := range tokens[i] {
				counts[term]++
			}
			termCounts[i] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("counting terms: %w", err)
	}

	idx := &InvertedIndex{
		terms:   make(map[string]*postingList),
		numDocs: len(docs),
	}
	for docID, counts := range termCounts {
		idx.merge(docID, counts)
		idx.totalTokens += int64(len(tokens[docID]))
	}
	slog.Default().With("component", "inverted-index").Debug("index built",
		"documents", idx.numDocs,
		"terms", len(idx.terms),
		"total_tokens", idx.totalTokens,
	)
	return idx, nil
}

// merge appends one posting per distinct term of docID. Callers must merge
// documents in ascending id order.
func (ix *InvertedIndex) merge(docID int, counts map[string]int) {
	for term, tf := range counts {
		pl, ok := ix.terms[term]
		if !ok {
			pl = &postingList{}
			ix.terms[term] = pl
		}
		pl.postings = append(pl.postings, Posting{DocID: docID, Frequency: tf})
		pl.docFreq++
	}
}

// DocumentFrequency returns the number of documents containing term.
func (ix *InvertedIndex) DocumentFrequency(term string) int {
	pl, ok := ix.terms[term]
	if !ok {
		return 0
	}
	return pl.docFreq
}

// TermFrequency returns the occurrences of term in docID, 0 if absent.
func (ix *InvertedIndex) TermFrequency(term string, docID int) int {
	pl, ok := ix.terms[term]
	if !ok {
		return 0
	}
	i := sort.Search(len(pl.postings), func(i int) bool {
		return pl.postings[i].DocID >= docID
	})
	if i < len(pl.postings) && pl.postings[i].DocID == docID {
		return pl.postings[i].Frequency
	}
	return 0
}

// Postings yields the postings of term in ascending document id order.
func (ix *InvertedIndex) Postings(term string) iter.Seq[Posting] {
	return func(yield func(Posting) bool) {
		pl, ok := ix.terms[term]
		if !ok {
			return
		}
		for _, p := range pl.postings {
			if !yield(p) {
				return
			}
		}
	}
}

func (ix *InvertedIndex) NumTerms() int {
	return len(ix.terms)
}

func (ix *InvertedIndex) NumDocuments() int {
	return ix.numDocs
}

// TotalTokens is the sum of all term frequencies in the index.
func (ix *InvertedIndex) TotalTokens() int64 {
	return ix.totalTokens
}

// Snapshot returns a copy of every term and its postings, sorted by term.
func (ix *InvertedIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(ix.terms))
	for term, pl := range ix.terms {
		postings := make(PostingList, len(pl.postings))
		copy(postings, pl.postings)
		entries = append(entries, TermEntry{
			Term:     term,
			DocFreq:  pl.docFreq,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// TopTerms returns up to n terms with the highest document frequency, ties
// broken alphabetically. Postings are omitted.
func (ix *InvertedIndex) TopTerms(n int) []TermEntry {
	if n <= 0 {
		return []TermEntry{}
	}
	entries := make([]TermEntry, 0, len(ix.terms))
	for term, pl := range ix.terms {
		entries = append(entries, TermEntry{Term: term, DocFreq: pl.docFreq})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DocFreq != entries[j].DocFreq {
			return entries[i].DocFreq > entries[j].DocFreq
		}
		return entries[i].Term < entries[j].Term
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
