package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/metrics"
)

// DocumentSource yields documents until io.EOF. *ingestion.Reader
// implements it.
type DocumentSource interface {
	Next() (ingestion.Document, error)
}

// Engine drives one index build: documents go in through IndexDocument or
// IndexStream and Flush writes the finished artifact. An Engine builds a
// single index and cannot be reused after Flush.
type Engine struct {
	builder     *index.Builder
	writer      *segment.Writer
	cfg         config.IndexerConfig
	metrics     *metrics.Metrics
	logger      *slog.Logger
	totalTokens int64
	flushed     bool
}

// NewEngine prepares the data directory. m may be nil.
func NewEngine(cfg config.IndexerConfig, m *metrics.Metrics) (*Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	return &Engine{
		builder: index.NewBuilder(),
		writer:  segment.NewWriter(cfg.DataDir),
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}, nil
}

// IndexDocument validates, tokenizes and adds one document.
func (e *Engine) IndexDocument(doc ingestion.Document) (index.DocID, error) {
	if err := validator.ValidateDocument(&doc); err != nil {
		if e.metrics != nil {
			e.metrics.DocsRejectedTotal.Inc()
		}
		return 0, err
	}
	tokens := tokenizer.Tokenize(doc.IndexText(), e.cfg.Stem)
	docID, err := e.builder.Add(doc.DocNo, tokens)
	if err != nil {
		if e.metrics != nil {
			e.metrics.DocsRejectedTotal.Inc()
		}
		return 0, fmt.Errorf("indexing %s: %w", doc.DocNo, err)
	}
	e.totalTokens += int64(len(tokens))
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.TokensIndexedTotal.Add(float64(len(tokens)))
	}
	e.logger.Debug("document indexed",
		"docno", doc.DocNo,
		"doc_id", docID,
		"token_count", len(tokens),
	)
	return docID, nil
}

// IndexStream indexes every document from src. The first invalid document
// aborts the build. ctx is checked between documents.
func (e *Engine) IndexStream(ctx context.Context, src DocumentSource) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, fmt.Errorf("indexing interrupted after %d documents: %w", n, err)
		}
		doc, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("reading document %d: %w", n+1, err)
		}
		if _, err := e.IndexDocument(doc); err != nil {
			return n, err
		}
		n++
		if n%10000 == 0 {
			e.logger.Info("indexing progress", "documents", n, "terms", e.builder.Lexicon().Len())
		}
	}
	return n, nil
}

// DocCount is the number of documents added so far.
func (e *Engine) DocCount() int {
	return e.builder.DocCount()
}

// AvgDocLength is the running mean document length.
func (e *Engine) AvgDocLength() float64 {
	if n := e.builder.DocCount(); n > 0 {
		return float64(e.totalTokens) / float64(n)
	}
	return 0
}

// Flush builds the immutable index, writes it and reopens the file to
// verify it.
func (e *Engine) Flush() (*segment.Artifact, error) {
	if e.flushed {
		return nil, errors.New("index already flushed")
	}
	e.flushed = true
	start := time.Now()
	idx := e.builder.Build(index.Meta{
		Stemmed:   e.cfg.Stem,
		CreatedAt: time.Now().Unix(),
	})
	path, digest, err := e.writer.Write(idx)
	if err != nil {
		return nil, fmt.Errorf("writing index: %w", err)
	}
	art, err := segment.Open(path)
	if err != nil {
		return nil, fmt.Errorf("verifying written index: %w", err)
	}
	if art.Digest != digest {
		return nil, fmt.Errorf("verifying written index: digest changed on reopen")
	}
	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.LexiconTerms.Set(float64(idx.Lexicon().Len()))
		e.metrics.IndexBuildSeconds.Set(elapsed.Seconds())
	}
	e.logger.Info("index flushed",
		"path", path,
		"terms", idx.Lexicon().Len(),
		"docs", idx.DocCount(),
		"avg_doc_length", idx.AvgDocLength(),
		"stemmed", e.cfg.Stem,
		"digest", fmt.Sprintf("%x", digest[:8]),
		"duration_ms", elapsed.Milliseconds(),
	)
	return art, nil
}

// Load opens the index artifact stored in dataDir.
func Load(dataDir string) (*segment.Artifact, error) {
	art, err := segment.Open(filepath.Join(dataDir, segment.FileName))
	if err != nil {
		return nil, err
	}
	slog.Default().With("component", "indexer").Info("index loaded",
		"path", art.Path,
		"terms", art.Index.Lexicon().Len(),
		"docs", art.Index.DocCount(),
		"stemmed", art.Index.Meta().Stemmed,
	)
	return art, nil
}
