package topk

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/ranker"
)

func scoresOf(n int, values map[int]float64) ranker.Scores {
	if values == nil {
		values = map[int]float64{}
	}
	return ranker.Scores{Values: values, NumDocuments: n}
}

func ids(docs []ranker.ScoredDoc) []int {
	out := make([]int, len(docs))
	for i, d := range docs {
		out[i] = d.DocID
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		scores ranker.Scores
		k      int
		want   []int
	}{
		{"k zero", scoresOf(5, map[int]float64{1: 2}), 0, []int{}},
		{"k negative", scoresOf(5, map[int]float64{1: 2}), -3, []int{}},
		{"best first", scoresOf(3, map[int]float64{0: 0.5, 1: 0.2, 2: 1.1}), 1, []int{2}},
		{"ties by id", scoresOf(4, map[int]float64{3: 1, 1: 1, 2: 1}), 3, []int{1, 2, 3}},
		{"zero fill in id order", scoresOf(5, map[int]float64{3: 0.7}), 4, []int{3, 0, 1, 2}},
		{"no matches", scoresOf(4, nil), 10, []int{0, 1, 2, 3}},
		{"k above corpus size", scoresOf(2, map[int]float64{1: 1}), 5, []int{1, 0}},
		{"empty corpus", scoresOf(0, nil), 3, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.scores, tt.k)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSelect_AgreesWithSortAll(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(200)
		values := make(map[int]float64)
		for id := 0; id < n; id++ {
			if rng.Intn(3) == 0 {
				// coarse values so ties are common
				values[id] = float64(1+rng.Intn(5)) / 2
			}
		}
		scores := scoresOf(n, values)
		for _, k := range []int{1, 3, n / 2, n, n + 4} {
			got := Select(scores, k)
			want := SortAll(scores, k)
			require.Len(t, got, min(k, n))
			require.Equal(t, want, got, "n=%d k=%d", n, k)
		}
	}
}

func TestSelect_IsSortedSubset(t *testing.T) {
	scores := scoresOf(6, map[int]float64{0: 0.1, 2: 3.5, 4: 3.5, 5: 0.9})
	got := Select(scores, 5)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		assert.True(t, prev.Score > cur.Score || (prev.Score == cur.Score && prev.DocID < cur.DocID))
	}
	for _, d := range got {
		assert.Equal(t, scores.Get(d.DocID), d.Score)
	}
}

func BenchmarkSelect(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	values := make(map[int]float64, 50000)
	for id := 0; id < 100000; id += 2 {
		values[id] = rng.Float64()
	}
	scores := scoresOf(100000, values)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Select(scores, 10)
	}
}

func TestSelect_NaNScoresAreNotRanked(t *testing.T) {
	got := Select(scoresOf(3, map[int]float64{0: math.NaN(), 1: 2, 2: 1}), 3)
	assert.Equal(t, []int{1, 2, 0}, ids(got))
	assert.Zero(t, got[2].Score)
}
