// Package executor runs a batch of queries against a loaded index and
// collects the ranked output as run-file results.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/results"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/tracing"
)

// SearchResult is the ranked output of one query.
type SearchResult struct {
	QueryID  string
	Matched  int
	Docs     []ranker.ScoredDoc
	CacheHit bool
	Latency  time.Duration
}

// Options configures an Executor. Zero values disable the optional parts.
type Options struct {
	Limit        int
	QueryTimeout time.Duration
	Cache        *cache.RankingCache
	Metrics      *metrics.Metrics
	Collector    *analytics.Collector
}

// Executor ranks queries one at a time against an immutable index.
type Executor struct {
	idx    *index.Index
	opts   Options
	logger *slog.Logger
}

func New(idx *index.Index, opts Options) *Executor {
	if opts.Limit <= 0 {
		opts.Limit = 1000
	}
	return &Executor{
		idx:    idx,
		opts:   opts,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute scores and ranks a single query.
func (e *Executor) Execute(ctx context.Context, q parser.Query) (*SearchResult, error) {
	start := time.Now()
	if e.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.QueryTimeout)
		defer cancel()
	}

	compute := func() (*cache.Ranking, error) {
		acc := ranker.Score(q.Terms, e.idx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &cache.Ranking{
			Matched: len(acc),
			Docs:    merger.TopK(ranker.Candidates(acc, e.idx), e.opts.Limit),
		}, nil
	}

	var (
		ranking  *cache.Ranking
		cacheHit bool
		err      error
	)
	if e.opts.Cache != nil {
		ranking, cacheHit, err = e.opts.Cache.GetOrCompute(ctx, q.Terms, e.opts.Limit, e.idx, compute)
	} else {
		ranking, err = compute()
	}
	if err != nil {
		e.observe("error", false, 0, 0)
		return nil, fmt.Errorf("ranking query %d: %w", q.ID, err)
	}

	latency := time.Since(start)
	res := &SearchResult{
		QueryID:  q.QueryID(),
		Matched:  ranking.Matched,
		Docs:     ranking.Docs,
		CacheHit: cacheHit,
		Latency:  latency,
	}
	resultType := "hit"
	switch {
	case cacheHit:
		resultType = "cached"
	case len(res.Docs) == 0:
		resultType = "zero_result"
	}
	e.observe(resultType, cacheHit, latency, len(res.Docs))

	logger.FromContext(ctx).Debug("query executed",
		"query_id", res.QueryID,
		"terms", len(q.Terms),
		"matched", res.Matched,
		"returned", len(res.Docs),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	return res, nil
}

// Run executes every query in order and returns the combined results with
// ranks starting at 1. The context is checked between queries.
func (e *Executor) Run(ctx context.Context, runID string, queries []parser.Query) (*results.Results, error) {
	ctx, span := tracing.StartChildSpan(ctx, "rank-queries")
	defer span.End()

	out := results.New()
	zero := 0
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run interrupted after %d queries: %w", i, err)
		}
		res, err := e.Execute(ctx, q)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				e.logger.Warn("query timed out, writing no results", "query_id", q.QueryID(), "timeout", e.opts.QueryTimeout)
				continue
			}
			return nil, err
		}
		if len(res.Docs) == 0 {
			zero++
		}
		for pos, d := range res.Docs {
			if err := out.AddResult(res.QueryID, d.DocNo, d.Score, pos+1); err != nil {
				return nil, fmt.Errorf("collecting results for query %s: %w", res.QueryID, err)
			}
		}
		e.opts.Collector.Track(ctx, runID, analytics.QueryEvent{
			Type:      analytics.EventQueryRanked,
			RunID:     runID,
			QueryID:   res.QueryID,
			Terms:     len(q.Terms),
			Matched:   res.Matched,
			Returned:  len(res.Docs),
			CacheHit:  res.CacheHit,
			LatencyMs: res.Latency.Milliseconds(),
			Timestamp: time.Now().UTC(),
		})
	}
	span.SetAttr("queries", len(queries))
	span.SetAttr("results", out.Len())
	span.SetAttr("zero_result_queries", zero)
	e.logger.Info("batch ranked",
		"queries", len(queries),
		"results", out.Len(),
		"zero_result_queries", zero,
	)
	return out, nil
}

func (e *Executor) observe(resultType string, cacheHit bool, latency time.Duration, returned int) {
	m := e.opts.Metrics
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(resultType).Inc()
	if resultType == "error" {
		return
	}
	if e.opts.Cache != nil {
		if cacheHit {
			m.CacheHitsTotal.Inc()
		} else {
			m.CacheMissesTotal.Inc()
		}
	}
	m.QueryLatency.Observe(latency.Seconds())
	m.QueryResultsCount.Observe(float64(returned))
}
