// Package merger selects the top-k documents from a large candidate set
// without sorting all of it.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/ranker"
)

// TopK returns the best limit documents in rank order. The order matches
// ranker.Rank. A limit of zero or less returns every candidate sorted.
func TopK(candidates []ranker.ScoredDoc, limit int) []ranker.ScoredDoc {
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	h := &scoredDocHeap{}
	heap.Init(h)
	for _, doc := range candidates {
		if h.Len() < limit {
			heap.Push(h, doc)
			continue
		}
		if limit > 0 && ranker.Before(doc, (*h)[0]) {
			(*h)[0] = doc
			heap.Fix(h, 0)
		}
	}
	result := make([]ranker.ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ranker.ScoredDoc)
	}
	return result
}

// Merge combines several ranked lists into a single top-k list.
func Merge(lists [][]ranker.ScoredDoc, limit int) []ranker.ScoredDoc {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	all := make([]ranker.ScoredDoc, 0, total)
	for _, l := range lists {
		all = append(all, l...)
	}
	return TopK(all, limit)
}

// scoredDocHeap is a min-heap on rank order: the root is the worst kept
// document.
type scoredDocHeap []ranker.ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	return ranker.Before(h[j], h[i])
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ranker.ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
