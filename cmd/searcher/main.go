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
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/results"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/tracing"
)

type options struct {
	indexDir  string
	queries   string
	out       string
	stem      bool
	stemSet   bool
	overwrite bool
}

func main() {
	flags := pflag.NewFlagSet("searcher", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to config file")
	indexDir := flags.String("index", "", "directory holding the index artifact (overrides indexer.dataDir)")
	queries := flags.String("queries", "", "queries file")
	out := flags.String("out", "", "run file to write")
	stem := flags.Bool("stem", false, "stem query tokens (defaults to the index setting)")
	runTag := flags.String("run-tag", "", "run tag written in the last column (overrides search.runTag)")
	limit := flags.Int("limit", 0, "maximum results per query (overrides search.maxResults)")
	force := flags.Bool("force", false, "overwrite an existing run file")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
	if *indexDir != "" {
		cfg.Indexer.DataDir = *indexDir
	}
	if *runTag != "" {
		cfg.Search.RunTag = *runTag
	}
	if *limit > 0 {
		cfg.Search.MaxResults = *limit
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid flags: %v\n", err)
		os.Exit(apperrors.ExitCode(apperrors.Newf(apperrors.ErrInvalidInput, "%v", err)))
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *queries == "" || *out == "" {
		slog.Error("--queries and --out are required")
		os.Exit(apperrors.ExitCode(apperrors.ErrInvalidInput))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Search.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Search.RunTimeout)
		defer cancel()
	}

	opts := options{
		indexDir:  cfg.Indexer.DataDir,
		queries:   *queries,
		out:       *out,
		stem:      *stem,
		stemSet:   flags.Changed("stem"),
		overwrite: *force,
	}
	if err := run(ctx, cfg, opts); err != nil {
		slog.Error("search run failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	runID := fmt.Sprintf("search-%d", time.Now().UnixNano())
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx)

	m := metrics.New()
	phase := health.NewPhase("load-index")
	checker := health.NewChecker()
	checker.Register("search_run", phase.Check)
	var shutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdown = m.StartServer(cfg.Metrics.Port, checker)
	}
	defer m.Finish(context.Background(), cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, shutdown)

	ctx, root := tracing.StartSpan(ctx, "search", runID)
	defer func() {
		root.End()
		if cfg.Tracing.Enabled {
			root.Log()
		}
	}()
	start := time.Now()

	_, loadSpan := tracing.StartChildSpan(ctx, "load-index")
	art, err := indexer.Load(opts.indexDir)
	loadSpan.End()
	if err != nil {
		phase.Fail(err)
		return err
	}
	idx := art.Index

	stem := idx.Meta().Stemmed
	if opts.stemSet {
		if opts.stem != stem {
			log.Warn("query stemming differs from the index build setting",
				"index_stemmed", stem,
				"query_stemmed", opts.stem,
			)
		}
		stem = opts.stem
	}

	qs, err := parser.ReadFile(opts.queries, stem)
	if err != nil {
		phase.Fail(err)
		return err
	}
	log.Info("queries loaded", "path", opts.queries, "queries", len(qs), "stem", stem)

	var rankingCache *cache.RankingCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, ranking cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			rankingCache = cache.New(redisClient, cfg.Redis.CacheTTL, art.Digest, stem)
			checker.Register("ranking_cache", func(context.Context) health.ComponentHealth {
				if state := rankingCache.BackendState(); state != resilience.StateClosed {
					return health.ComponentHealth{Status: health.StatusDegraded, Message: "breaker " + state.String()}
				}
				return health.ComponentHealth{Status: health.StatusUp}
			})
			log.Info("ranking cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		collector = analytics.NewCollector(kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RunEvents), 500)
		defer func() {
			if err := collector.Close(context.Background()); err != nil {
				log.Warn("closing event producer", "error", err)
			}
		}()
	}

	exec := executor.New(idx, executor.Options{
		Limit:        cfg.Search.MaxResults,
		QueryTimeout: cfg.Search.QueryTimeout,
		Cache:        rankingCache,
		Metrics:      m,
		Collector:    collector,
	})
	phase.Ready("rank-queries")
	res, err := exec.Run(ctx, runID, qs)
	if err != nil {
		phase.Fail(err)
		return err
	}
	phase.Enter("write-run")

	_, writeSpan := tracing.StartChildSpan(ctx, "write-run")
	err = results.WriteRunFile(opts.out, res, cfg.Search.RunTag, opts.overwrite)
	writeSpan.SetAttr("lines", res.Len())
	writeSpan.End()
	if err != nil {
		phase.Fail(err)
		return err
	}

	if rankingCache != nil {
		hits, misses := rankingCache.Stats()
		log.Info("ranking cache stats", "hits", hits, "misses", misses)
	}
	elapsed := time.Since(start)
	collector.Track(ctx, runID, analytics.RunEvent{
		Type:      analytics.EventRunWritten,
		RunID:     runID,
		RunTag:    cfg.Search.RunTag,
		Path:      opts.out,
		Queries:   len(qs),
		Lines:     res.Len(),
		LatencyMs: elapsed.Milliseconds(),
		Timestamp: time.Now().UTC(),
	})
	log.Info("run written",
		"path", opts.out,
		"run_tag", cfg.Search.RunTag,
		"queries", len(qs),
		"lines", res.Len(),
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}
