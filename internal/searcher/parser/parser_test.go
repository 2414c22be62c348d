package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

func TestRead(t *testing.T) {
	input := "401\nforeign minorities, Germany\n\n402\nbehavioral genetics\n403\n\n"
	queries, err := Read(strings.NewReader(input), "queries.txt", false)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(queries) != 3 {
		t.Fatalf("got %d queries, want 3", len(queries))
	}
	if queries[0].ID != 401 || queries[0].QueryID() != "401" {
		t.Errorf("first id = %d", queries[0].ID)
	}
	if want := []string{"foreign", "minorities", "germany"}; !reflect.DeepEqual(queries[0].Terms, want) {
		t.Errorf("terms = %v, want %v", queries[0].Terms, want)
	}
	if queries[2].ID != 403 || len(queries[2].Terms) != 0 {
		t.Errorf("empty query = %+v", queries[2])
	}
}

func TestReadStemmed(t *testing.T) {
	queries, err := Read(strings.NewReader("7\nRunning jumps\n"), "q", true)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"run", "jump"}; !reflect.DeepEqual(queries[0].Terms, want) {
		t.Errorf("terms = %v, want %v", queries[0].Terms, want)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"non-integer id", "abc\nquery\n"},
		{"missing query line", "401\nquery\n402\n"},
		{"duplicate id", "401\na\n401\nb\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), "q", false)
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	if err := os.WriteFile(path, []byte("1\nquake\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	queries, err := ReadFile(path, false)
	if err != nil || len(queries) != 1 {
		t.Fatalf("ReadFile = %v, %v", queries, err)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing"), false); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}
