package ingestion

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

const maxLineSize = 4 << 20

var (
	docNoPattern    = regexp.MustCompile(`(?s)<DOCNO>\s*(.*?)\s*</DOCNO>`)
	headlinePattern = regexp.MustCompile(`(?s)<HEADLINE>(.+?)</HEADLINE>`)
	textPattern     = regexp.MustCompile(`(?s)<TEXT>(.+?)</TEXT>`)
	graphicPattern  = regexp.MustCompile(`(?s)<GRAPHIC>(.+?)</GRAPHIC>`)
	paragraphTags   = strings.NewReplacer("<P>", " ", "</P>", " ", "\n", " ", "\r", " ")
)

// Reader streams documents out of a TREC collection.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	name    string
	line    int
	count   int
	buf     bytes.Buffer
}

// OpenFile opens a collection file. Files ending in .gz or .gzip are
// decompressed on the fly.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}
	var src io.Reader = f
	closer := io.Closer(f)
	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".gzip") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		src = gz
		closer = multiCloser{gz, f}
	}
	r := NewReader(src, path)
	r.closer = closer
	return r, nil
}

// NewReader reads an uncompressed TREC stream. name is used in error
// messages.
func NewReader(src io.Reader, name string) *Reader {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{scanner: sc, name: name}
}

// Next returns the next document, or io.EOF when the stream is exhausted.
func (r *Reader) Next() (Document, error) {
	r.buf.Reset()
	inDoc := false
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case !inDoc && trimmed == "":
			continue
		case !inDoc && strings.HasPrefix(trimmed, "<DOC>"):
			inDoc = true
			continue
		case !inDoc:
			return Document{}, apperrors.Validation(r.name, r.line, "expected <DOC>, got %q", truncate(trimmed))
		case strings.HasPrefix(trimmed, "</DOC>"):
			doc, err := r.parse()
			if err != nil {
				return Document{}, err
			}
			r.count++
			return doc, nil
		}
		r.buf.WriteString(line)
		r.buf.WriteByte('\n')
	}
	if err := r.scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", r.name, err)
	}
	if inDoc {
		return Document{}, apperrors.Validation(r.name, r.line, "unterminated <DOC>")
	}
	return Document{}, io.EOF
}

// Count returns how many documents have been returned so far.
func (r *Reader) Count() int {
	return r.count
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Reader) parse() (Document, error) {
	raw := r.buf.Bytes()
	m := docNoPattern.FindSubmatch(raw)
	if m == nil {
		return Document{}, apperrors.Validation(r.name, r.line, "document %d has no <DOCNO>", r.count)
	}
	return Document{
		DocNo:    string(m[1]),
		Headline: extract(raw, headlinePattern),
		Text:     extract(raw, textPattern),
		Graphic:  extract(raw, graphicPattern),
	}, nil
}

func extract(raw []byte, pattern *regexp.Regexp) string {
	m := pattern.FindSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(paragraphTags.Replace(string(m[1])))
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
