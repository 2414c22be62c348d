package results

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

const (
	runFields = 6
	iterField = "Q0"
	nullToken = "null"
)

// ReadRunFile loads a run file and returns its results and run tag.
func ReadRunFile(path string) (*Results, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening run file: %w", err)
	}
	defer f.Close()
	return ReadRun(f, path)
}

// ReadRun parses `queryID Q0 docNo rank score runTag` lines. Blank lines are
// skipped. Every line must carry the same run tag.
func ReadRun(r io.Reader, source string) (*Results, string, error) {
	res := New()
	runTag := ""
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != runFields {
			return nil, "", apperrors.Validation(source, lineNo, "expected %d columns, got %d", runFields, len(fields))
		}
		for _, f := range fields {
			if f == nullToken {
				return nil, "", apperrors.Validation(source, lineNo, "null value in fields")
			}
		}
		rank, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, "", apperrors.Validation(source, lineNo, "rank %q is not an integer", fields[3])
		}
		score, err := strconv.ParseFloat(fields[4], 64)
		if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, "", apperrors.Validation(source, lineNo, "score %q is not a finite number", fields[4])
		}
		if runTag == "" {
			runTag = fields[5]
		} else if fields[5] != runTag {
			return nil, "", apperrors.Validation(source, lineNo, "run tag %q does not match %q", fields[5], runTag)
		}
		if err := res.AddResult(fields[0], fields[2], score, rank); err != nil {
			return nil, "", fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", source, err)
	}
	return res, runTag, nil
}

// WriteRun writes every result, queries in insertion order and each query
// in rank order. Scores use the shortest representation that parses back to
// the same float64.
func WriteRun(w io.Writer, res *Results, runTag string) error {
	if err := checkID("run tag", runTag); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, queryID := range res.QueryIDs() {
		list, err := res.QueryResults(queryID)
		if err != nil {
			return err
		}
		for _, r := range list {
			if err := WriteLine(bw, queryID, r, runTag); err != nil {
				return err
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing run: %w", err)
	}
	return nil
}

// WriteLine writes a single run-file line.
func WriteLine(w io.Writer, queryID string, r Result, runTag string) error {
	_, err := fmt.Fprintf(w, "%s %s %s %d %s %s\n",
		queryID, iterField, r.DocNo, r.Rank,
		strconv.FormatFloat(r.Score, 'g', -1, 64), runTag)
	if err != nil {
		return fmt.Errorf("writing run line: %w", err)
	}
	return nil
}

// WriteRunFile atomically writes res to path. It refuses to replace an
// existing file unless overwrite is set.
func WriteRunFile(path string, res *Results, runTag string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return apperrors.Newf(apperrors.ErrInvalidInput, "run file %s already exists", path)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating run file: %w", err)
	}
	if err := WriteRun(f, res, runTag); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing run file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming run file: %w", err)
	}
	return nil
}
