package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name      string
		doc       ingestion.Document
		wantField string
	}{
		{"valid", ingestion.Document{DocNo: "LA010189-0001", Text: "body"}, ""},
		{"valid without text", ingestion.Document{DocNo: "LA010189-0002"}, ""},
		{"missing docno", ingestion.Document{Text: "body"}, "docno"},
		{"docno with space", ingestion.Document{DocNo: "LA 01"}, "docno"},
		{"null docno", ingestion.Document{DocNo: "null"}, "docno"},
		{"long docno", ingestion.Document{DocNo: strings.Repeat("x", 256)}, "docno"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(&tt.doc)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("err does not wrap ErrValidation")
			}
			if _, ok := verr.Fields[tt.wantField]; !ok {
				t.Errorf("fields = %v, want %q", verr.Fields, tt.wantField)
			}
		})
	}
}
