// Package parser reads batch query files. A query file alternates a line
// holding the integer topic ID with a line holding the query text.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

// Query is one topic from the query file.
type Query struct {
	ID    int
	Raw   string
	Terms []string
}

// QueryID is the topic ID as written to run files.
func (q Query) QueryID() string {
	return strconv.Itoa(q.ID)
}

// Parse tokenizes a single query string.
func Parse(id int, raw string, stem bool) Query {
	return Query{
		ID:    id,
		Raw:   raw,
		Terms: tokenizer.Tokenize(raw, stem),
	}
}

// ReadFile parses every query in the file at path.
func ReadFile(path string, stem bool) ([]Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening queries file: %w", err)
	}
	defer f.Close()
	return Read(f, path, stem)
}

// Read parses queries from r. Topic IDs must be integers and unique, and
// every topic line must be followed by a query line. Blank lines between
// queries are ignored; a blank query line is an empty query.
func Read(r io.Reader, source string, stem bool) ([]Query, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	var queries []Query
	seen := make(map[int]int)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		idLine := strings.TrimSpace(scanner.Text())
		if idLine == "" {
			continue
		}
		id, err := strconv.Atoi(idLine)
		if err != nil {
			return nil, apperrors.Validation(source, lineNo, "topic id %q is not an integer", idLine)
		}
		if prev, ok := seen[id]; ok {
			return nil, apperrors.Validation(source, lineNo, "topic %d already defined on line %d", id, prev)
		}
		seen[id] = lineNo

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", source, err)
			}
			return nil, apperrors.Validation(source, lineNo, "topic %d has no query line", id)
		}
		lineNo++
		queries = append(queries, Parse(id, scanner.Text(), stem))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return queries, nil
}
