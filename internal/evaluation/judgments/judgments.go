// Package judgments holds relevance judgments (qrels) keyed by
// (query, document).
package judgments

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

const qrelsFields = 4

type key struct {
	queryID string
	docNo   string
}

// Judgments is an append-only store of graded judgments. A grade of 0 means
// non-relevant; any other grade counts as relevant.
type Judgments struct {
	grades       map[key]int
	judged       map[string]struct{}
	relevantDocs map[string][]string
	size         int
}

func New() *Judgments {
	return &Judgments{
		grades:       make(map[key]int),
		judged:       make(map[string]struct{}),
		relevantDocs: make(map[string][]string),
	}
}

// AddJudgment records one judgment. A second judgment for the same query and
// document fails with ErrDuplicateKey.
func (j *Judgments) AddJudgment(queryID, docNo string, grade int) error {
	if queryID == "" || docNo == "" {
		return apperrors.New(apperrors.ErrValidation, "query id and docno must not be empty")
	}
	k := key{queryID: queryID, docNo: docNo}
	if _, exists := j.grades[k]; exists {
		return apperrors.DuplicateKey(queryID, docNo)
	}
	j.grades[k] = grade
	j.judged[queryID] = struct{}{}
	if grade != 0 {
		j.relevantDocs[queryID] = append(j.relevantDocs[queryID], docNo)
	}
	j.size++
	return nil
}

// Judgment returns the grade for (queryID, docNo). With assumeNonRelevant
// set it never fails and unknown pairs grade 0. Otherwise an unknown query
// or document fails with ErrNotFound.
func (j *Judgments) Judgment(queryID, docNo string, assumeNonRelevant bool) (int, error) {
	grade, ok := j.grades[key{queryID: queryID, docNo: docNo}]
	if ok {
		return grade, nil
	}
	if assumeNonRelevant {
		return 0, nil
	}
	if _, judged := j.judged[queryID]; !judged {
		return 0, apperrors.NotFound("relevance judgments for query", queryID)
	}
	return 0, apperrors.NotFound("relevance judgment for document", queryID+"/"+docNo)
}

// IsRelevant treats unjudged documents as non-relevant.
func (j *Judgments) IsRelevant(queryID, docNo string) bool {
	grade, _ := j.Judgment(queryID, docNo, true)
	return grade != 0
}

// NumRelevant counts the relevant documents for a judged query.
func (j *Judgments) NumRelevant(queryID string) (int, error) {
	if _, ok := j.judged[queryID]; !ok {
		return 0, apperrors.NotFound("relevance judgments for query", queryID)
	}
	return len(j.relevantDocs[queryID]), nil
}

// RelDocNos lists the relevant documents of a judged query in insertion
// order.
func (j *Judgments) RelDocNos(queryID string) ([]string, error) {
	if _, ok := j.judged[queryID]; !ok {
		return nil, apperrors.NotFound("relevance judgments for query", queryID)
	}
	return append([]string(nil), j.relevantDocs[queryID]...), nil
}

// QueryIDs returns the sorted IDs of queries with at least one relevant
// document. These are the queries an evaluation reports on.
func (j *Judgments) QueryIDs() []string {
	ids := make([]string, 0, len(j.relevantDocs))
	for id := range j.relevantDocs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len is the number of stored judgments.
func (j *Judgments) Len() int {
	return j.size
}

// ReadQrelsFile loads a qrels file.
func ReadQrelsFile(path string) (*Judgments, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening qrels file: %w", err)
	}
	defer f.Close()
	return ReadQrels(f, path)
}

// ReadQrels parses `queryID unused docNo grade` lines. Blank lines are
// skipped.
func ReadQrels(r io.Reader, source string) (*Judgments, error) {
	j := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != qrelsFields {
			return nil, apperrors.Validation(source, lineNo, "expected %d columns, got %d", qrelsFields, len(fields))
		}
		for _, f := range fields {
			if f == "null" {
				return nil, apperrors.Validation(source, lineNo, "null value in fields")
			}
		}
		grade, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, apperrors.Validation(source, lineNo, "grade %q is not an integer", fields[3])
		}
		if err := j.AddJudgment(fields[0], fields[2], grade); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return j, nil
}
