// Package metrics defines the Prometheus metric collectors used by the
// indexer, searcher and evaluator and exposes them for scraping or for a
// Pushgateway at the end of a batch job.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus collectors for the toolkit.
type Metrics struct {
	registry *prometheus.Registry

	DocsIndexedTotal   prometheus.Counter
	DocsRejectedTotal  prometheus.Counter
	TokensIndexedTotal prometheus.Counter
	LexiconTerms       prometheus.Gauge
	IndexBuildSeconds  prometheus.Gauge
	QueriesTotal       *prometheus.CounterVec
	QueryLatency       prometheus.Histogram
	QueryResultsCount  prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	LinesLoadedTotal   *prometheus.CounterVec
	EvaluatedQueries   prometheus.Gauge
	MeanScore          *prometheus.GaugeVec
}

// New creates all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents added to the index.",
			},
		),
		DocsRejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_rejected_total",
				Help: "Documents that failed validation.",
			},
		),
		TokensIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokens_indexed_total",
				Help: "Total tokens (including repeats) indexed.",
			},
		),
		LexiconTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_terms",
				Help: "Number of distinct terms in the lexicon.",
			},
		),
		IndexBuildSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_build_seconds",
				Help: "Wall time of the last index build.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queries_total",
				Help: "Queries ranked by result type (hit, zero_result, cached, error).",
			},
			[]string{"result_type"},
		),
		QueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "query_latency_seconds",
				Help:    "Time to score and rank one query.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		QueryResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "query_results_count",
				Help:    "Number of ranked documents written per query.",
				Buckets: []float64{0, 1, 10, 100, 500, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ranking_cache_hits_total",
				Help: "Total ranking cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ranking_cache_misses_total",
				Help: "Total ranking cache misses.",
			},
		),
		LinesLoadedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eval_lines_loaded_total",
				Help: "Lines loaded from run and qrels files.",
			},
			[]string{"file"},
		),
		EvaluatedQueries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "evaluated_queries",
				Help: "Number of queries in the last evaluation.",
			},
		),
		MeanScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eval_mean_score",
				Help: "Mean per-query score of the last evaluation by metric.",
			},
			[]string{"run_tag", "metric"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.DocsIndexedTotal,
		m.DocsRejectedTotal,
		m.TokensIndexedTotal,
		m.LexiconTerms,
		m.IndexBuildSeconds,
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.LinesLoadedTotal,
		m.EvaluatedQueries,
		m.MeanScore,
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Push sends every collector to a Pushgateway under the given job name.
func (m *Metrics) Push(url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
