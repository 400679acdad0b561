// Package ranker scores documents against a query with Okapi BM25.
package ranker

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/index"
)

const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Params are the BM25 free parameters.
type Params struct {
	K1 float64
	B  float64
}

// DefaultParams returns k1 = 1.2, b = 0.75.
func DefaultParams() Params {
	return Params{K1: DefaultK1, B: DefaultB}
}

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// Scores holds the non-zero scores of a query. Any document in
// [0, NumDocuments) missing from Values scores exactly 0.
type Scores struct {
	Values       map[int]float64
	NumDocuments int
}

func (s Scores) Get(docID int) float64 {
	return s.Values[docID]
}

// Scorer is read-only after construction and safe for concurrent use.
type Scorer struct {
	idx    *index.InvertedIndex
	corpus *corpus.Corpus
	params Params
	avgdl  float64
	n      float64
}

func NewScorer(idx *index.InvertedIndex, c *corpus.Corpus, p Params) *Scorer {
	stats := c.Stats()
	return &Scorer{
		idx:    idx,
		corpus: c,
		params: p,
		avgdl:  stats.AvgDocumentLength,
		n:      float64(stats.NumDocuments),
	}
}

func (s *Scorer) Params() Params {
	return s.params
}

// IDF returns the smoothed inverse document frequency for a term found in df
// documents. A term absent from the corpus contributes nothing.
func (s *Scorer) IDF(df int) float64 {
	if df <= 0 {
		return 0
	}
	d := float64(df)
	return math.Log((s.n-d+0.5)/(d+0.5) + 1)
}

func (s *Scorer) termScore(idf float64, tf, docLen int) float64 {
	if tf == 0 || idf == 0 {
		return 0
	}
	ratio := 1.0
	if s.avgdl > 0 {
		ratio = float64(docLen) / s.avgdl
	}
	norm := 1 - s.params.B + s.params.B*ratio
	f := float64(tf)
	return idf * f * (s.params.K1 + 1) / (f + s.params.K1*norm)
}

// Score computes the BM25 score of a single document.
func (s *Scorer) Score(terms []string, docID int) float64 {
	docLen := s.corpus.Length(docID)
	var total float64
	for _, term := range distinct(terms) {
		idf := s.IDF(s.idx.DocumentFrequency(term))
		total += s.termScore(idf, s.idx.TermFrequency(term, docID), docLen)
	}
	return total
}

// ScoreAll scores every document by walking only the posting lists of the
// query's distinct terms.
func (s *Scorer) ScoreAll(terms []string) Scores {
	scores := Scores{
		Values:       make(map[int]float64),
		NumDocuments: s.corpus.Len(),
	}
	for _, term := range distinct(terms) {
		idf := s.IDF(s.idx.DocumentFrequency(term))
		if idf == 0 {
			continue
		}
		for p := range s.idx.Postings(term) {
			scores.Values[p.DocID] += s.termScore(idf, p.Frequency, s.corpus.Length(p.DocID))
		}
	}
	return scores
}

func distinct(terms []string) []string {
	if len(terms) < 2 {
		return terms
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
