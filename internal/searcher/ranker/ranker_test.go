package ranker

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/tokenizer"
)

func newScorer(t testing.TB, contents ...string) *Scorer {
	t.Helper()
	entries := make([]corpus.Entry, len(contents))
	for i, c := range contents {
		entries[i] = corpus.Entry{URL: fmt.Sprintf("doc-%d", i), Content: c}
	}
	c, tokens, err := corpus.Build(context.Background(), entries, corpus.Limits{})
	require.NoError(t, err)
	idx, err := index.Build(context.Background(), c.Documents(), tokens, 2)
	require.NoError(t, err)
	return NewScorer(idx, c, DefaultParams())
}

func TestIDF_MonotoneAndNonNegative(t *testing.T) {
	contents := make([]string, 50)
	for i := range contents {
		contents[i] = "filler"
	}
	s := newScorer(t, contents...)

	assert.Equal(t, 0.0, s.IDF(0))
	prev := math.Inf(1)
	for df := 1; df <= 50; df++ {
		idf := s.IDF(df)
		assert.GreaterOrEqual(t, idf, 0.0, "df=%d", df)
		assert.Less(t, idf, prev, "df=%d", df)
		assert.False(t, math.IsNaN(idf) || math.IsInf(idf, 0))
		prev = idf
	}
}

func TestScoreAll_CatDogScenario(t *testing.T) {
	s := newScorer(t, "the cat sat", "the dog sat", "cat and dog")

	scores := s.ScoreAll(tokenizer.Tokenize("cat dog"))
	a, b, c := scores.Get(0), scores.Get(1), scores.Get(2)
	assert.Greater(t, a, 0.0)
	assert.Greater(t, b, 0.0)
	assert.GreaterOrEqual(t, c, a)
	assert.GreaterOrEqual(t, c, b)
	assert.Equal(t, 3, scores.NumDocuments)
}

func TestScore_SingleDocument(t *testing.T) {
	s := newScorer(t, "hello world")

	assert.InDelta(t, math.Log(4.0/3.0), s.IDF(1), 1e-12)
	score := s.Score([]string{"hello"}, 0)
	assert.Greater(t, score, 0.0)
	assert.False(t, math.IsInf(score, 0) || math.IsNaN(score))

	// tf=1 and len == avgdl, so the tf part reduces to (k1+1)/(1+k1) = 1.
	assert.InDelta(t, math.Log(4.0/3.0), score, 1e-12)
}

func TestScoreAll_DegenerateQueries(t *testing.T) {
	s := newScorer(t, "alpha beta", "beta gamma", "")

	tests := []struct {
		name  string
		terms []string
	}{
		{"empty query", nil},
		{"absent term", []string{"zeta"}},
		{"punctuation only", tokenizer.Tokenize("!!! ???")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := s.ScoreAll(tt.terms)
			assert.Empty(t, scores.Values)
			for id := 0; id < scores.NumDocuments; id++ {
				assert.Equal(t, 0.0, scores.Get(id))
			}
		})
	}
}

func TestScoreAll_AllEmptyContent(t *testing.T) {
	s := newScorer(t, "", "", "")

	scores := s.ScoreAll([]string{"anything"})
	assert.Empty(t, scores.Values)
	assert.Equal(t, 0.0, s.Score([]string{"anything"}, 1))
}

func TestScore_MatchesScoreAll(t *testing.T) {
	s := newScorer(t,
		"the quick brown fox jumps over the lazy dog",
		"a quick brown dog",
		"lazy lazy lazy cat",
		"nothing to see here",
	)
	terms := tokenizer.Tokenize("quick lazy dog lazy")
	all := s.ScoreAll(terms)
	for id := 0; id < all.NumDocuments; id++ {
		assert.InDelta(t, s.Score(terms, id), all.Get(id), 1e-12, "doc %d", id)
	}
	assert.NotContains(t, all.Values, 3)
}

func TestScore_RepeatedTermsCountOnce(t *testing.T) {
	s := newScorer(t, "cat sat", "dog sat", "cat dog")

	once := s.Score([]string{"cat"}, 0)
	twice := s.Score([]string{"cat", "cat"}, 0)
	assert.Equal(t, once, twice)
}

func TestScore_LengthNormalization(t *testing.T) {
	s := newScorer(t, "cat", "cat dog bird fish", "dog")

	short := s.Score([]string{"cat"}, 0)
	long := s.Score([]string{"cat"}, 1)
	assert.Greater(t, short, long)

	flat := NewScorer(s.idx, s.corpus, Params{K1: DefaultK1, B: 0})
	assert.Equal(t, flat.Score([]string{"cat"}, 0), flat.Score([]string{"cat"}, 1))
}

func BenchmarkScoreAll(b *testing.B) {
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
	contents := make([]string, 5000)
	for i := range contents {
		contents[i] = fmt.Sprintf("%s %s %s", words[i%8], words[(i*3)%8], words[(i*5)%8])
	}
	s := newScorer(b, contents...)
	terms := []string{"alpha", "delta"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.ScoreAll(terms)
	}
}
