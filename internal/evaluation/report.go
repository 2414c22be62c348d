package evaluation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/judgments"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/results"
)

// Metric names as they appear in the output file.
type Metric string

const (
	MetricAP       Metric = "ap"
	MetricNDCG10   Metric = "ndcg_cut_10"
	MetricNDCG1000 Metric = "ndcg_cut_1000"
	MetricP10      Metric = "P_10"
)

// Metrics lists every reported metric in output order.
var Metrics = []Metric{MetricAP, MetricNDCG10, MetricNDCG1000, MetricP10}

// Score is one per-query metric value.
type Score struct {
	Metric  Metric
	QueryID string
	Value   float64
}

// Report holds every score of one evaluation, grouped by metric in
// Metrics order and by query ID within each metric.
type Report struct {
	RunTag   string
	QueryIDs []string
	Scores   []Score
}

// Evaluate scores every query that has at least one relevant judgment.
// Queries missing from res score 0 on every metric.
func Evaluate(ctx context.Context, res *results.Results, qrels *judgments.Judgments, runTag string) (*Report, error) {
	queryIDs := qrels.QueryIDs()
	report := &Report{
		RunTag:   runTag,
		QueryIDs: queryIDs,
		Scores:   make([]Score, 0, len(queryIDs)*len(Metrics)),
	}
	for _, m := range Metrics {
		for _, queryID := range queryIDs {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("evaluation interrupted: %w", err)
			}
			v, err := compute(m, queryID, res, qrels)
			if err != nil {
				return nil, fmt.Errorf("computing %s for query %s: %w", m, queryID, err)
			}
			report.Scores = append(report.Scores, Score{Metric: m, QueryID: queryID, Value: v})
		}
	}
	return report, nil
}

func compute(m Metric, queryID string, res *results.Results, qrels *judgments.Judgments) (float64, error) {
	switch m {
	case MetricAP:
		return AveragePrecision(queryID, res, qrels)
	case MetricNDCG10:
		return NDCG(queryID, res, qrels, 10)
	case MetricNDCG1000:
		return NDCG(queryID, res, qrels, 1000)
	case MetricP10:
		return PrecisionAt10(queryID, res, qrels)
	default:
		return 0, fmt.Errorf("unknown metric %q", m)
	}
}

// Mean averages a metric over the report's queries.
func (r *Report) Mean(m Metric) float64 {
	sum := 0.0
	n := 0
	for _, s := range r.Scores {
		if s.Metric == m {
			sum += s.Value
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Value looks up a single score.
func (r *Report) Value(m Metric, queryID string) (float64, bool) {
	for _, s := range r.Scores {
		if s.Metric == m && s.QueryID == queryID {
			return s.Value, true
		}
	}
	return 0, false
}

// WriteTo writes `metric queryID value` lines with four decimals.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, s := range r.Scores {
		n, err := fmt.Fprintf(bw, "%s %s %.4f\n", s.Metric, s.QueryID, s.Value)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("writing report: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return total, fmt.Errorf("writing report: %w", err)
	}
	return total, nil
}

// WriteFile writes the report to path, replacing any existing file.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing report file: %w", err)
	}
	return nil
}
