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
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/tracing"
)

func main() {
	flags := pflag.NewFlagSet("indexer", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to config file")
	source := flags.String("source", "", "TREC collection to index (.gz accepted)")
	outDir := flags.String("out", "", "directory for the index artifact (overrides indexer.dataDir)")
	stem := flags.Bool("stem", false, "stem tokens with the Snowball English stemmer")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
	if *outDir != "" {
		cfg.Indexer.DataDir = *outDir
	}
	if flags.Changed("stem") {
		cfg.Indexer.Stem = *stem
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *source == "" {
		slog.Error("--source is required")
		os.Exit(apperrors.ExitCode(apperrors.ErrInvalidInput))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *source); err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, source string) error {
	runID := fmt.Sprintf("index-%d", time.Now().UnixNano())
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx)
	log.Info("starting indexer",
		"source", source,
		"data_dir", cfg.Indexer.DataDir,
		"stem", cfg.Indexer.Stem,
	)

	m := metrics.New()
	phase := health.NewPhase("open-collection")
	checker := health.NewChecker()
	checker.Register("index_build", phase.Check)
	var shutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdown = m.StartServer(cfg.Metrics.Port, checker)
	}
	defer m.Finish(context.Background(), cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, shutdown)

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		collector = analytics.NewCollector(kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RunEvents), 100)
		defer func() {
			if err := collector.Close(context.Background()); err != nil {
				log.Warn("closing event producer", "error", err)
			}
		}()
	}

	ctx, root := tracing.StartSpan(ctx, "index", runID)
	defer func() {
		root.End()
		if cfg.Tracing.Enabled {
			root.Log()
		}
	}()

	start := time.Now()
	reader, err := ingestion.OpenFile(source)
	if err != nil {
		phase.Fail(err)
		return err
	}
	defer reader.Close()

	engine, err := indexer.NewEngine(cfg.Indexer, m)
	if err != nil {
		phase.Fail(err)
		return err
	}
	phase.Ready("read-and-tokenize")

	readCtx, readSpan := tracing.StartChildSpan(ctx, "read-and-tokenize")
	n, err := engine.IndexStream(readCtx, reader)
	readSpan.SetAttr("documents", n)
	readSpan.End()
	if err != nil {
		phase.Fail(err)
		return err
	}
	phase.Enter("write-artifact")

	_, writeSpan := tracing.StartChildSpan(ctx, "write-artifact")
	art, err := engine.Flush()
	writeSpan.End()
	if err != nil {
		phase.Fail(err)
		return err
	}
	writeSpan.SetAttr("path", art.Path)
	phase.Enter("done")

	elapsed := time.Since(start)
	collector.Track(ctx, runID, analytics.IndexEvent{
		Type:      analytics.EventIndexBuilt,
		RunID:     runID,
		Source:    source,
		Path:      art.Path,
		Digest:    fmt.Sprintf("%x", art.Digest),
		DocCount:  art.Index.DocCount(),
		TermCount: art.Index.Lexicon().Len(),
		Stemmed:   art.Index.Meta().Stemmed,
		LatencyMs: elapsed.Milliseconds(),
		Timestamp: time.Now().UTC(),
	})
	log.Info("indexer finished",
		"documents", art.Index.DocCount(),
		"terms", art.Index.Lexicon().Len(),
		"path", art.Path,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}
