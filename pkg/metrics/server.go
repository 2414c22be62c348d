package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/health"
)

// StartServer serves /metrics for the lifetime of a long batch job, plus
// the health endpoints when checker is non-nil.
func (m *Metrics) StartServer(port int, checker *health.Checker) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	if checker != nil {
		mux.HandleFunc("/health/live", checker.LiveHandler())
		mux.HandleFunc("/health/ready", checker.ReadyHandler())
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>Retrieval Toolkit Metrics</h1><p><a href="/metrics">/metrics</a></p></body></html>`)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}

// Finish pushes to the Pushgateway when one is configured and stops the
// scrape server if it was started. Errors are logged; a metrics failure
// never fails a batch job.
func (m *Metrics) Finish(ctx context.Context, pushURL, job string, shutdown func(context.Context) error) {
	if pushURL != "" {
		if err := m.Push(pushURL, job); err != nil {
			slog.Warn("metrics push failed", "error", err)
		} else {
			slog.Info("metrics pushed", "url", pushURL, "job", job)
		}
	}
	if shutdown != nil {
		if err := shutdown(ctx); err != nil {
			slog.Warn("metrics server shutdown failed", "error", err)
		}
	}
}
