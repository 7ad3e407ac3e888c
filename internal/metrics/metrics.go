// Package metrics exposes scrape counters and durations for Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amishk599/gigfinder/internal/aggregator"
	"github.com/amishk599/gigfinder/internal/model"
)

// Metrics records one observation per source invocation. It satisfies
// aggregator.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	ScrapesTotal   *prometheus.CounterVec
	JobsFetched    *prometheus.CounterVec
	JobsAdded      *prometheus.CounterVec
	ScrapeDuration *prometheus.HistogramVec
}

var _ aggregator.Recorder = (*Metrics)(nil)

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScrapesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gigfinder_scrapes_total",
				Help: "Total number of source invocations by outcome.",
			},
			[]string{"platform", "outcome"},
		),
		JobsFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gigfinder_jobs_fetched_total",
				Help: "Total number of records returned by sources.",
			},
			[]string{"platform"},
		),
		JobsAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gigfinder_jobs_added_total",
				Help: "Total number of records newly stored.",
			},
			[]string{"platform"},
		),
		ScrapeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gigfinder_scrape_duration_seconds",
				Help:    "Duration of each source invocation in seconds.",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"platform"},
		),
	}
	m.registry.MustRegister(
		m.ScrapesTotal,
		m.JobsFetched,
		m.JobsAdded,
		m.ScrapeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RecordScrape(p model.Platform, outcome aggregator.Outcome, d time.Duration, fetched, added int) {
	platform := string(p)
	m.ScrapesTotal.WithLabelValues(platform, string(outcome)).Inc()
	m.JobsFetched.WithLabelValues(platform).Add(float64(fetched))
	m.JobsAdded.WithLabelValues(platform).Add(float64(added))
	m.ScrapeDuration.WithLabelValues(platform).Observe(d.Seconds())
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server started", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		logger.Info("metrics server stopped")
		return nil
	}
}
