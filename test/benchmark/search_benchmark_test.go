package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/ranker"
)

// BenchmarkQueryParse measures query tokenizing for queries of varying
// length.
func BenchmarkQueryParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"short", "earthquake damage"},
		{"medium", "valley earthquake damage reported by police"},
		{"long", strings.Join(vocabulary, " ")},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = parser.Parse(401, q.query, true)
			}
		})
	}
}

// BenchmarkBM25Score measures accumulator scoring for growing collections.
func BenchmarkBM25Score(b *testing.B) {
	terms := []string{"earthquake", "valley", "damage"}
	for _, docs := range []int{1000, 10000, 50000} {
		b.Run(fmt.Sprintf("docs_%d", docs), func(b *testing.B) {
			idx := buildIndex(b, docs)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = ranker.Score(terms, idx)
			}
		})
	}
}

// BenchmarkRankVsTopK compares a full sort with the heap top-k at the
// default run depth.
func BenchmarkRankVsTopK(b *testing.B) {
	idx := buildIndex(b, 50000)
	acc := ranker.Score([]string{"earthquake", "valley"}, idx)
	b.Run("sort", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = ranker.Rank(acc, idx, 1000)
		}
	})
	b.Run("heap", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = merger.TopK(ranker.Candidates(acc, idx), 1000)
		}
	})
}

// BenchmarkExecutorRun measures a batch of 50 queries end to end.
func BenchmarkExecutorRun(b *testing.B) {
	idx := buildIndex(b, 10000)
	queries := make([]parser.Query, 50)
	for i := range queries {
		raw := vocabulary[i%len(vocabulary)] + " " + vocabulary[(i+5)%len(vocabulary)]
		queries[i] = parser.Parse(401+i, raw, false)
	}
	exec := executor.New(idx, executor.Options{Limit: 1000})
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := exec.Run(ctx, "bench", queries); err != nil {
			b.Fatal(err)
		}
	}
}
