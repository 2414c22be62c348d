// Package results holds ranked system output keyed by (query, document) and
// reads and writes it in the six-column run-file format.
package results

import (
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

// Result is one ranked document for a query.
type Result struct {
	DocNo string
	Score float64
	Rank  int
}

type key struct {
	queryID string
	docNo   string
}

// Results is an append-only store of ranked results. It is not safe for
// concurrent use.
type Results struct {
	keys    map[key]struct{}
	byQuery map[string][]Result
	sorted  map[string]bool
	order   []string
	size    int
}

func New() *Results {
	return &Results{
		keys:    make(map[key]struct{}),
		byQuery: make(map[string][]Result),
		sorted:  make(map[string]bool),
	}
}

// AddResult inserts one result. A second result for the same query and
// document fails with ErrDuplicateKey and leaves the store unchanged.
func (r *Results) AddResult(queryID, docNo string, score float64, rank int) error {
	if err := checkID("query id", queryID); err != nil {
		return err
	}
	if err := checkID("docno", docNo); err != nil {
		return err
	}
	k := key{queryID: queryID, docNo: docNo}
	if _, exists := r.keys[k]; exists {
		return apperrors.DuplicateKey(queryID, docNo)
	}
	r.keys[k] = struct{}{}
	if _, ok := r.byQuery[queryID]; !ok {
		r.order = append(r.order, queryID)
	}
	r.byQuery[queryID] = append(r.byQuery[queryID], Result{DocNo: docNo, Score: score, Rank: rank})
	r.sorted[queryID] = false
	r.size++
	return nil
}

// QueryResults returns the results for a query sorted by score descending,
// ties broken by DocNo descending. The returned slice must not be modified.
func (r *Results) QueryResults(queryID string) ([]Result, error) {
	list, ok := r.byQuery[queryID]
	if !ok {
		return nil, apperrors.NotFound("results for query", queryID)
	}
	if !r.sorted[queryID] {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Score != list[j].Score {
				return list[i].Score > list[j].Score
			}
			return list[i].DocNo > list[j].DocNo
		})
		r.sorted[queryID] = true
	}
	return list, nil
}

// Has reports whether any result exists for the query.
func (r *Results) Has(queryID string) bool {
	_, ok := r.byQuery[queryID]
	return ok
}

// QueryIDs returns the query IDs in first-insertion order.
func (r *Results) QueryIDs() []string {
	return append([]string(nil), r.order...)
}

// Len is the total number of stored results.
func (r *Results) Len() int {
	return r.size
}

func checkID(what, id string) error {
	switch {
	case id == "":
		return apperrors.Newf(apperrors.ErrValidation, "%s must not be empty", what)
	case strings.ContainsAny(id, " \t\r\n"):
		return apperrors.Newf(apperrors.ErrValidation, "%s %q must not contain whitespace", what, id)
	}
	return nil
}
