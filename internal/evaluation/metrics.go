// Package evaluation scores ranked results against relevance judgments with
// average precision, precision at 10 and NDCG.
package evaluation

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/judgments"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/results"
)

// MaxRank is the evaluation depth for average precision.
const MaxRank = 1000

// AveragePrecision walks the first MaxRank results and averages the
// precision at each relevant hit over the number of relevant documents.
// A query without results scores 0.
func AveragePrecision(queryID string, res *results.Results, qrels *judgments.Judgments) (float64, error) {
	totalRelevant, err := qrels.NumRelevant(queryID)
	if err != nil {
		return 0, err
	}
	list, ok := queryResults(queryID, res)
	if !ok || totalRelevant == 0 {
		return 0, nil
	}

	n := 1
	numRelevant := 0
	precisionAtN := 0.0
	sum := 0.0
	for _, r := range list {
		if qrels.IsRelevant(queryID, r.DocNo) {
			// Unreachable: the loop stops at rank MaxRank first.
			if numRelevant == MaxRank {
				precisionAtN = 0
			}
			numRelevant++
			precisionAtN = float64(numRelevant) / float64(n)
			sum += precisionAtN
		}
		if n == MaxRank {
			break
		}
		n++
	}
	return sum / float64(totalRelevant), nil
}

// PrecisionAt10 is the fraction of relevant documents among the first
// min(10, len) results.
func PrecisionAt10(queryID string, res *results.Results, qrels *judgments.Judgments) (float64, error) {
	if _, err := qrels.NumRelevant(queryID); err != nil {
		return 0, err
	}
	list, ok := queryResults(queryID, res)
	if !ok || len(list) == 0 {
		return 0, nil
	}
	n := 0
	numRelevant := 0
	for _, r := range list {
		n++
		if qrels.IsRelevant(queryID, r.DocNo) {
			numRelevant++
		}
		if n == 10 {
			break
		}
	}
	return float64(numRelevant) / float64(n), nil
}

// NDCG computes binary-gain NDCG at cutoff k. The ideal ranking puts
// min(NumRelevant, k) relevant documents first. An ideal DCG of zero yields 0.
func NDCG(queryID string, res *results.Results, qrels *judgments.Judgments, k int) (float64, error) {
	totalRelevant, err := qrels.NumRelevant(queryID)
	if err != nil {
		return 0, err
	}
	list, ok := queryResults(queryID, res)
	if !ok {
		return 0, nil
	}

	dcg := 0.0
	for i, r := range list {
		rank := i + 1
		if rank > k {
			break
		}
		if qrels.IsRelevant(queryID, r.DocNo) {
			dcg += 1 / math.Log2(float64(rank+1))
		}
	}

	idcg := 0.0
	for j := 1; j <= min(totalRelevant, k); j++ {
		idcg += 1 / math.Log2(float64(j+1))
	}
	if idcg == 0 {
		return 0, nil
	}
	return dcg / idcg, nil
}

func queryResults(queryID string, res *results.Results) ([]results.Result, bool) {
	if !res.Has(queryID) {
		return nil, false
	}
	list, err := res.QueryResults(queryID)
	if err != nil {
		return nil, false
	}
	return list, true
}
