package merger

import (
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/ranker"
)

func sortedCopy(docs []ranker.ScoredDoc) []ranker.ScoredDoc {
	out := append([]ranker.ScoredDoc(nil), docs...)
	sort.Slice(out, func(i, j int) bool { return ranker.Before(out[i], out[j]) })
	return out
}

func TestTopKMatchesFullSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	docs := make([]ranker.ScoredDoc, 500)
	for i := range docs {
		docs[i] = ranker.ScoredDoc{
			DocNo: fmt.Sprintf("LA%04d", i),
			// few distinct scores so ties are common
			Score: float64(rng.Intn(20)) / 4,
		}
	}
	want := sortedCopy(docs)
	for _, limit := range []int{1, 10, 100, 500, 1000, 0} {
		got := TopK(docs, limit)
		n := limit
		if n <= 0 || n > len(want) {
			n = len(want)
		}
		if !reflect.DeepEqual(got, want[:n]) {
			t.Errorf("limit %d: TopK differs from sorted prefix", limit)
		}
	}
}

func TestTopKEmpty(t *testing.T) {
	if got := TopK(nil, 10); len(got) != 0 {
		t.Errorf("TopK(nil) = %v", got)
	}
}

func TestMerge(t *testing.T) {
	a := []ranker.ScoredDoc{{DocNo: "A", Score: 3}, {DocNo: "B", Score: 1}}
	b := []ranker.ScoredDoc{{DocNo: "C", Score: 2}, {DocNo: "D", Score: 1}}
	got := Merge([][]ranker.ScoredDoc{a, b}, 3)
	want := []string{"A", "C", "D"}
	for i, d := range got {
		if d.DocNo != want[i] {
			t.Fatalf("merged = %+v, want %v", got, want)
		}
	}
}
