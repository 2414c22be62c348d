// Package validator checks documents before they are indexed. It enforces
// the DOCNO constraints that the run-file format relies on and returns
// per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

const (
	maxDocNoLength = 255
	maxTextLength  = 16 << 20
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	DocNo  string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return fmt.Sprintf("document %q: %s", e.DocNo, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidation
}

// ValidateDocument checks that the DOCNO can be written to a run file and
// that the text fields are within bounds.
func ValidateDocument(doc *ingestion.Document) error {
	errs := make(map[string]string)

	switch {
	case doc.DocNo == "":
		errs["docno"] = "docno is required"
	case len(doc.DocNo) > maxDocNoLength:
		errs["docno"] = fmt.Sprintf("docno must be at most %d characters", maxDocNoLength)
	case strings.ContainsAny(doc.DocNo, " \t\r\n"):
		errs["docno"] = "docno must not contain whitespace"
	case doc.DocNo == "null":
		errs["docno"] = "docno must not be the literal null"
	}
	if n := len(doc.Headline) + len(doc.Text) + len(doc.Graphic); n > maxTextLength {
		errs["text"] = fmt.Sprintf("text must be at most %d bytes, got %d", maxTextLength, n)
	}
	if len(errs) > 0 {
		return &ValidationError{DocNo: doc.DocNo, Fields: errs}
	}
	return nil
}
