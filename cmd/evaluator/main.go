package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/judgments"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/results"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/store"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/tracing"
)

func main() {
	flags := pflag.NewFlagSet("evaluator", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to config file")
	runPath := flags.String("results", "", "run file to evaluate")
	qrelsPath := flags.String("qrels", "", "relevance judgments file")
	out := flags.String("out", "", "metric output file (overrides evaluation.outputPath)")
	persist := flags.Bool("persist", false, "store per-query scores in PostgreSQL (overrides evaluation.persistScores)")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
	if *out != "" {
		cfg.Evaluation.OutputPath = *out
	}
	if flags.Changed("persist") {
		cfg.Evaluation.PersistScore = *persist
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *runPath == "" || *qrelsPath == "" {
		slog.Error("--results and --qrels are required")
		os.Exit(apperrors.ExitCode(apperrors.ErrInvalidInput))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *runPath, *qrelsPath); err != nil {
		slog.Error("evaluation failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, runPath, qrelsPath string) error {
	runID := fmt.Sprintf("eval-%d", time.Now().UnixNano())
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx)

	m := metrics.New()
	phase := health.NewPhase("load-inputs")
	checker := health.NewChecker()
	checker.Register("evaluation", phase.Check)
	var shutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdown = m.StartServer(cfg.Metrics.Port, checker)
	}
	defer m.Finish(context.Background(), cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, shutdown)

	ctx, root := tracing.StartSpan(ctx, "evaluate", runID)
	defer func() {
		root.End()
		if cfg.Tracing.Enabled {
			root.Log()
		}
	}()

	_, loadSpan := tracing.StartChildSpan(ctx, "load-inputs")
	res, runTag, err := results.ReadRunFile(runPath)
	if err != nil {
		loadSpan.End()
		phase.Fail(err)
		return err
	}
	qrels, err := judgments.ReadQrelsFile(qrelsPath)
	loadSpan.End()
	if err != nil {
		phase.Fail(err)
		return err
	}
	phase.Ready("score")
	m.LinesLoadedTotal.WithLabelValues("run").Add(float64(res.Len()))
	m.LinesLoadedTotal.WithLabelValues("qrels").Add(float64(qrels.Len()))
	log.Info("inputs loaded",
		"run", runPath,
		"run_tag", runTag,
		"result_lines", res.Len(),
		"qrels", qrelsPath,
		"judgments", qrels.Len(),
	)

	_, scoreSpan := tracing.StartChildSpan(ctx, "score")
	report, err := evaluation.Evaluate(ctx, res, qrels, runTag)
	scoreSpan.End()
	if err != nil {
		phase.Fail(err)
		return err
	}
	if err := report.WriteFile(cfg.Evaluation.OutputPath); err != nil {
		phase.Fail(err)
		return err
	}
	phase.Enter("publish")

	means := make(map[string]float64, len(evaluation.Metrics))
	for _, metric := range evaluation.Metrics {
		mean := report.Mean(metric)
		means[string(metric)] = mean
		m.MeanScore.WithLabelValues(runTag, string(metric)).Set(mean)
	}
	m.EvaluatedQueries.Set(float64(len(report.QueryIDs)))
	log.Info("evaluation written",
		"path", cfg.Evaluation.OutputPath,
		"queries", len(report.QueryIDs),
		"map", means[string(evaluation.MetricAP)],
		"ndcg_cut_10", means[string(evaluation.MetricNDCG10)],
		"P_10", means[string(evaluation.MetricP10)],
	)

	if cfg.Kafka.Enabled {
		collector := analytics.NewCollector(kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RunEvents), 1)
		collector.Track(ctx, runID, analytics.EvaluationEvent{
			Type:      analytics.EventEvaluated,
			RunID:     runID,
			RunTag:    runTag,
			Queries:   len(report.QueryIDs),
			Means:     means,
			Timestamp: time.Now().UTC(),
		})
		if err := collector.Close(context.Background()); err != nil {
			log.Warn("closing event producer", "error", err)
		}
	}

	if cfg.Evaluation.PersistScore {
		if err := persist(ctx, cfg.Postgres, runID, report); err != nil {
			return err
		}
		log.Info("scores persisted", "run_id", runID)
	}
	return nil
}

func persist(ctx context.Context, cfg config.PostgresConfig, runID string, report *evaluation.Report) error {
	ctx, span := tracing.StartChildSpan(ctx, "persist-scores")
	defer span.End()

	db, err := postgres.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to score store: %w", err)
	}
	defer db.Close()

	s := store.New(db)
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := s.SaveReport(ctx, runID, report); err != nil {
		return err
	}
	history, err := s.MeanHistory(ctx, report.RunTag, evaluation.MetricAP, 5)
	if err != nil {
		slog.Warn("loading score history", "error", err)
		return nil
	}
	span.SetAttr("history", len(history))
	slog.Info("recent mean average precision", "run_tag", report.RunTag, "values", history)
	return nil
}
