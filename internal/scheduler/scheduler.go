package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/gigfinder/internal/aggregator"
	"github.com/amishk599/gigfinder/internal/model"
)

// Scraper runs one term against the job sources.
type Scraper interface {
	Scrape(ctx context.Context, req aggregator.Request) aggregator.Report
}

// Scheduler owns the watch loop: ticks on an interval and scrapes each
// configured term sequentially.
type Scheduler struct {
	scraper   Scraper
	terms     []string
	platforms []model.Platform
	interval  time.Duration
	termDelay time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that scrapes terms every interval, pausing
// termDelay between terms. An empty platforms means every source.
func NewScheduler(
	scraper Scraper,
	terms []string,
	platforms []model.Platform,
	interval time.Duration,
	termDelay time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		scraper:   scraper,
		terms:     terms,
		platforms: platforms,
		interval:  interval,
		termDelay: termDelay,
		logger:    logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"interval", s.interval.String(),
		"terms", len(s.terms),
	)

	s.scrapeAll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.scrapeAll(ctx)
		}
	}
}

// scrapeAll scrapes each term in order with a pause between terms.
func (s *Scheduler) scrapeAll(ctx context.Context) {
	start := time.Now()
	var added int
	for i, term := range s.terms {
		if ctx.Err() != nil {
			return
		}

		report := s.scraper.Scrape(ctx, aggregator.Request{Term: term, Platforms: s.platforms})
		added += report.Added()
		s.logger.Info("scraped term",
			"term", term,
			"fetched", report.Attempted(),
			"added", report.Added(),
		)

		if i < len(s.terms)-1 && s.termDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.termDelay):
			}
		}
	}
	s.logger.Info("scrape cycle finished",
		"terms", len(s.terms),
		"added", added,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}
