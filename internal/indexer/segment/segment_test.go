package segment

import (
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

func buildSample(t *testing.T) *index.Index {
	t.Helper()
	docs := []struct{ docNo, text string }{
		{"LA010189-0001", "Earthquake damages freeway; freeway closed"},
		{"LA010189-0002", "Lakers win again at the Forum"},
		{"LA010189-0003", "Freeway traffic after the earthquake"},
	}
	b := index.NewBuilder()
	for _, d := range docs {
		if _, err := b.Add(d.docNo, tokenizer.Tokenize(d.text, true)); err != nil {
			t.Fatal(err)
		}
	}
	return b.Build(index.Meta{Stemmed: true, CreatedAt: 1700000000})
}

func TestWriteOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	orig := buildSample(t)

	path, digest, err := NewWriter(dir).Write(orig)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	art, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if art.Digest != digest {
		t.Error("digest differs between write and read")
	}
	got := art.Index
	if !reflect.DeepEqual(got.Lexicon().Terms(), orig.Lexicon().Terms()) {
		t.Errorf("terms = %q, want %q", got.Lexicon().Terms(), orig.Lexicon().Terms())
	}
	if !reflect.DeepEqual(got.Entries(), orig.Entries()) {
		t.Error("postings differ after round trip")
	}
	if !reflect.DeepEqual(got.DocLengths(), orig.DocLengths()) {
		t.Errorf("doc lengths = %v, want %v", got.DocLengths(), orig.DocLengths())
	}
	if !reflect.DeepEqual(got.DocNos(), orig.DocNos()) {
		t.Errorf("docnos = %q, want %q", got.DocNos(), orig.DocNos())
	}
	if got.Meta() != orig.Meta() {
		t.Errorf("meta = %+v, want %+v", got.Meta(), orig.Meta())
	}
	if got.AvgDocLength() != orig.AvgDocLength() {
		t.Errorf("avgdl = %v, want %v", got.AvgDocLength(), orig.AvgDocLength())
	}
}

func TestRoundTripWithoutDocNos(t *testing.T) {
	b := index.NewBuilder()
	ids := b.Lexicon().InternAll([]string{"a", "b", "a"})
	if _, err := b.AddDocument(0, ids); err != nil {
		t.Fatal(err)
	}
	orig := b.Build(index.Meta{})
	path, _, err := NewWriter(t.TempDir()).Write(orig)
	if err != nil {
		t.Fatal(err)
	}
	art, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if art.Index.DocNos() != nil {
		t.Errorf("docnos = %q, want nil", art.Index.DocNos())
	}
	if art.Index.DocNo(0) != "0" {
		t.Errorf("DocNo fallback = %q", art.Index.DocNo(0))
	}
}

func TestOpenDetectsCorruption(t *testing.T) {
	path, _, err := NewWriter(t.TempDir()).Write(buildSample(t))
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"bad magic", func(b []byte) []byte { b[0] ^= 0xff; return b }},
		{"flipped body byte", func(b []byte) []byte { b[HeaderSize+1] ^= 0x01; return b }},
		{"truncated", func(b []byte) []byte { return b[:HeaderSize] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := append([]byte(nil), data...)
			bad := t.TempDir() + "/" + FileName
			if err := os.WriteFile(bad, tt.mutate(buf), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Open(bad)
			if !errors.Is(err, apperrors.ErrCorrupt) {
				t.Errorf("err = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(t.TempDir() + "/missing.bmx")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}
