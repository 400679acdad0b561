// Package topk selects the highest scoring documents of a query.
package topk

import (
	"container/heap"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/ranker"
)

// Select returns the k best documents, score descending with ascending
// document id breaking ties. The result has min(k, NumDocuments) entries;
// documents that scored 0 fill any remaining slots in id order.
// A non-positive k yields an empty slice.
func Select(scores ranker.Scores, k int) []ranker.ScoredDoc {
	if k <= 0 || scores.NumDocuments <= 0 {
		return []ranker.ScoredDoc{}
	}
	if k > scores.NumDocuments {
		k = scores.NumDocuments
	}

	h := make(scoredDocHeap, 0, min(k, len(scores.Values)))
	for id, score := range scores.Values {
		// also drops NaN, which would break the heap ordering
		if !(score > 0) {
			continue
		}
		doc := ranker.ScoredDoc{DocID: id, Score: score}
		if h.Len() < k {
			heap.Push(&h, doc)
			continue
		}
		if better(doc, h[0]) {
			h[0] = doc
			heap.Fix(&h, 0)
		}
	}

	result := make([]ranker.ScoredDoc, h.Len(), k)
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(ranker.ScoredDoc)
	}

	for id := 0; id < scores.NumDocuments && len(result) < k; id++ {
		if scores.Values[id] > 0 {
			continue
		}
		result = append(result, ranker.ScoredDoc{DocID: id})
	}
	return result
}

// SortAll scores every document and fully sorts them. It is the reference
// ordering Select must agree with.
func SortAll(scores ranker.Scores, k int) []ranker.ScoredDoc {
	if k <= 0 {
		return []ranker.ScoredDoc{}
	}
	all := make([]ranker.ScoredDoc, scores.NumDocuments)
	for id := range all {
		all[id] = ranker.ScoredDoc{DocID: id, Score: scores.Get(id)}
	}
	sort.Slice(all, func(i, j int) bool { return better(all[i], all[j]) })
	if k < len(all) {
		all = all[:k]
	}
	return all
}

func better(a, b ranker.ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// scoredDocHeap is a min-heap whose root is the worst retained document.
type scoredDocHeap []ranker.ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool { return better(h[j], h[i]) }

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x any) {
	*h = append(*h, x.(ranker.ScoredDoc))
}

func (h *scoredDocHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
