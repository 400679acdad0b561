// Package parser turns a raw query string into a query plan.
package parser

import (
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
)

// QueryPlan is a tokenized query. Terms keeps repeats in query order.
type QueryPlan struct {
	Terms    []string
	RawQuery string
}

// Parse tokenizes query with the same rules used for documents. A query
// longer than maxLen bytes is rejected; maxLen <= 0 disables the check.
// An empty or punctuation-only query yields a plan with no terms.
func Parse(query string, maxLen int) (*QueryPlan, error) {
	if maxLen > 0 && len(query) > maxLen {
		return nil, apperrors.Capacityf("query length", len(query), maxLen)
	}
	return &QueryPlan{
		Terms:    tokenizer.Tokenize(query),
		RawQuery: query,
	}, nil
}

// Distinct returns the plan's terms without repeats, in first-seen order.
func (p *QueryPlan) Distinct() []string {
	seen := make(map[string]struct{}, len(p.Terms))
	out := make([]string, 0, len(p.Terms))
	for _, t := range p.Terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}
