// Package ranker scores documents against a tokenized query with BM25.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/index"
)

const (
	k1 = 1.2
	b  = 0.75
)

// ScoredDoc is one ranked document.
type ScoredDoc struct {
	DocID index.DocID
	DocNo string
	Score float64
}

// Before reports whether a ranks ahead of c: higher score first, ties broken
// by DocNo descending.
func Before(a, c ScoredDoc) bool {
	if a.Score != c.Score {
		return a.Score > c.Score
	}
	return a.DocNo > c.DocNo
}

// Score accumulates BM25 contributions for every document that contains at
// least one query token. Each occurrence of a token in the query contributes
// again; tokens missing from the lexicon are skipped.
func Score(queryTokens []string, idx *index.Index) map[index.DocID]float64 {
	acc := make(map[index.DocID]float64)
	if len(queryTokens) == 0 {
		return acc
	}
	totalDocs := idx.DocCount()
	avgDocLength := idx.AvgDocLength()
	for _, token := range queryTokens {
		postings, ok := idx.Lookup(token)
		if !ok {
			continue
		}
		idf := computeIDF(totalDocs, len(postings))
		for _, posting := range postings {
			tfNorm := computeTFNorm(
				float64(posting.Frequency),
				float64(idx.DocLength(posting.DocID)),
				avgDocLength,
			)
			acc[posting.DocID] += tfNorm * idf
		}
	}
	return acc
}

// Candidates turns an accumulator into unordered ScoredDocs with DocNos
// resolved.
func Candidates(acc map[index.DocID]float64, idx *index.Index) []ScoredDoc {
	docs := make([]ScoredDoc, 0, len(acc))
	for id, score := range acc {
		docs = append(docs, ScoredDoc{DocID: id, DocNo: idx.DocNo(id), Score: score})
	}
	return docs
}

// Rank sorts the accumulator and keeps at most limit documents. A limit of
// zero or less keeps everything.
func Rank(acc map[index.DocID]float64, idx *index.Index, limit int) []ScoredDoc {
	docs := Candidates(acc, idx)
	sort.Slice(docs, func(i, j int) bool {
		return Before(docs[i], docs[j])
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}

// computeIDF is the Robertson-Sparck Jones weight without the +1 shift, so
// terms in more than half the collection get a negative idf.
func computeIDF(totalDocs, docFreq int) float64 {
	n := float64(docFreq)
	return math.Log((float64(totalDocs) - n + 0.5) / (n + 0.5))
}

func computeTFNorm(termFreq, docLength, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	k := k1 * ((1 - b) + b*docLength/avgDocLength)
	return termFreq / (k + termFreq)
}
