// Package aggregator runs one search term against the selected job sources
// concurrently and ingests what they return.
package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/gigfinder/internal/model"
)

// Outcome classifies how one source invocation ended.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeEmpty    Outcome = "empty"
	OutcomeBlocked  Outcome = "blocked"
	OutcomeFailed   Outcome = "failed"
	OutcomeDisabled Outcome = "disabled"
)

// Recorder receives one observation per source invocation.
type Recorder interface {
	RecordScrape(platform model.Platform, outcome Outcome, duration time.Duration, fetched, added int)
}

// Request selects what to scrape. An empty Platforms means every registered
// source; Page below 1 means the first page.
type Request struct {
	Term      string
	Platforms []model.Platform
	Page      int
}

// SourceReport is the result of one source invocation.
type SourceReport struct {
	Platform  model.Platform
	Outcome   Outcome
	Attempted int // records returned by the source
	Added     int // records newly stored
	Duration  time.Duration
	Err       error
	New       []model.Job // newly stored records in source order
}

// Report aggregates a Scrape call. Sources keep the order of the request.
type Report struct {
	Term      string
	Page      int
	Sources   []SourceReport
	NotifyErr error
}

func (r Report) Attempted() int {
	return lo.SumBy(r.Sources, func(s SourceReport) int { return s.Attempted })
}

func (r Report) Added() int {
	return lo.SumBy(r.Sources, func(s SourceReport) int { return s.Added })
}

// NewJobs returns every newly stored record, grouped by source.
func (r Report) NewJobs() []model.Job {
	return lo.FlatMap(r.Sources, func(s SourceReport, _ int) []model.Job { return s.New })
}

// Aggregator owns the scrape pipeline: fetch → insert → report → notify.
type Aggregator struct {
	sources  map[model.Platform]model.JobSource
	order    []model.Platform
	store    model.JobStore
	notifier model.Notifier
	metrics  Recorder
	logger   *slog.Logger
}

// New creates an aggregator over sources, in the given order. notifier and
// metrics may be nil.
func New(
	sources []model.JobSource,
	store model.JobStore,
	notifier model.Notifier,
	metrics Recorder,
	logger *slog.Logger,
) *Aggregator {
	a := &Aggregator{
		sources:  make(map[model.Platform]model.JobSource, len(sources)),
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
	for _, src := range sources {
		p := src.Platform()
		if _, dup := a.sources[p]; dup {
			continue
		}
		a.sources[p] = src
		a.order = append(a.order, p)
	}
	return a
}

// Platforms returns the registered platforms in registration order.
func (a *Aggregator) Platforms() []model.Platform {
	return append([]model.Platform(nil), a.order...)
}

// Scrape fans term out to the requested sources. Every source failure is
// absorbed into its SourceReport; Scrape itself never fails.
func (a *Aggregator) Scrape(ctx context.Context, req Request) Report {
	if req.Page < 1 {
		req.Page = 1
	}
	platforms := lo.Uniq(req.Platforms)
	if len(platforms) == 0 {
		platforms = a.order
	}

	report := Report{Term: req.Term, Page: req.Page, Sources: make([]SourceReport, len(platforms))}

	var g errgroup.Group
	for i, p := range platforms {
		src, ok := a.sources[p]
		if !ok {
			report.Sources[i] = SourceReport{Platform: p, Outcome: OutcomeDisabled}
			a.logger.Info("scrape skipped", "source", p, "term", req.Term, "outcome", OutcomeDisabled)
			continue
		}
		i := i // per-iteration copy; go.mod targets go1.21 loop semantics
		g.Go(func() error {
			report.Sources[i] = a.scrapeSource(ctx, src, req)
			return nil
		})
	}
	_ = g.Wait()

	if newJobs := report.NewJobs(); a.notifier != nil && len(newJobs) > 0 {
		if err := a.notifier.Notify(newJobs); err != nil {
			report.NotifyErr = err
			a.logger.Warn("notify failed", "term", req.Term, "count", len(newJobs), "error", err)
		}
	}
	return report
}

func (a *Aggregator) scrapeSource(ctx context.Context, src model.JobSource, req Request) SourceReport {
	p := src.Platform()
	start := time.Now()
	jobs, err := src.Search(ctx, req.Term, req.Page)

	sr := SourceReport{Platform: p, Outcome: classify(err, len(jobs)), Err: err}
	if err != nil {
		// a failed invocation counts as zero results
		jobs = nil
	}
	sr.Attempted = len(jobs)

	for _, job := range jobs {
		added, err := a.store.Insert(ctx, job)
		if err != nil {
			a.logger.Error("store insert failed",
				"source", p,
				"external_id", job.ExternalID,
				"error", err,
			)
			continue
		}
		if added {
			sr.Added++
			sr.New = append(sr.New, job)
		}
	}
	sr.Duration = time.Since(start)

	attrs := []any{
		"source", p,
		"term", req.Term,
		"page", req.Page,
		"outcome", sr.Outcome,
		"duration", sr.Duration.Round(time.Millisecond),
		"fetched", sr.Attempted,
		"added", sr.Added,
	}
	switch sr.Outcome {
	case OutcomeFailed:
		a.logger.Warn("scrape finished", append(attrs, "error", err)...)
	case OutcomeBlocked:
		a.logger.Info("scrape finished", append(attrs, "reason", err)...)
	default:
		a.logger.Info("scrape finished", attrs...)
	}

	if a.metrics != nil {
		a.metrics.RecordScrape(p, sr.Outcome, sr.Duration, sr.Attempted, sr.Added)
	}
	return sr
}

// classify maps a source result to its outcome.
func classify(err error, n int) Outcome {
	switch {
	case errors.Is(err, model.ErrBlocked), errors.Is(err, model.ErrBlockedByDesign):
		return OutcomeBlocked
	case err != nil:
		return OutcomeFailed
	case n == 0:
		return OutcomeEmpty
	}
	return OutcomeOK
}

// Summary counts sources per outcome.
func (r Report) Summary() map[Outcome]int {
	return lo.CountValuesBy(r.Sources, func(s SourceReport) Outcome { return s.Outcome })
}
