// Package benchmark contains Go benchmarks for tokenizing, index building,
// artifact encoding and batch ranking.
package benchmark

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/config"
)

var vocabulary = []string{
	"earthquake", "valley", "damage", "lakers", "council", "budget",
	"police", "freeway", "school", "drought", "election", "fire",
}

func syntheticTokens(i int) []string {
	tokens := make([]string, 0, 40)
	for j := 0; j < 40; j++ {
		tokens = append(tokens, vocabulary[(i*7+j*3)%len(vocabulary)])
	}
	return tokens
}

func buildIndex(b *testing.B, docs int) *index.Index {
	b.Helper()
	builder := index.NewBuilder()
	for i := 0; i < docs; i++ {
		if _, err := builder.Add(fmt.Sprintf("LA%06d", i), syntheticTokens(i)); err != nil {
			b.Fatal(err)
		}
	}
	return builder.Build(index.Meta{})
}

// BenchmarkBuilderAdd measures per-document insert throughput.
func BenchmarkBuilderAdd(b *testing.B) {
	builder := index.NewBuilder()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Add(fmt.Sprintf("LA%09d", i), syntheticTokens(i)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEngineIndexDocument measures validate, tokenize and add for one
// document.
func BenchmarkEngineIndexDocument(b *testing.B) {
	engine, err := indexer.NewEngine(config.IndexerConfig{DataDir: b.TempDir(), Stem: true}, nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc := ingestion.Document{
			DocNo:    fmt.Sprintf("LA%09d", i),
			Headline: "Quake rattles valley",
			Text:     "A moderate earthquake shook the valley early Sunday, damaging chimneys.",
		}
		if _, err := engine.IndexDocument(doc); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSegmentRoundTrip measures writing and reopening the artifact for
// different collection sizes.
func BenchmarkSegmentRoundTrip(b *testing.B) {
	for _, docs := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", docs), func(b *testing.B) {
			idx := buildIndex(b, docs)
			w := segment.NewWriter(b.TempDir())
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				path, _, err := w.Write(idx)
				if err != nil {
					b.Fatal(err)
				}
				if _, err := segment.Open(path); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
