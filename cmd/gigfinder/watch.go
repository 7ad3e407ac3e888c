package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/amishk599/gigfinder/internal/metrics"
	"github.com/amishk599/gigfinder/internal/scheduler"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var watchSources string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scrape the configured terms on an interval",
	Long: "Runs the watch loop: every watch.interval each term in watch.terms is scraped\n" +
		"and new postings are sent to the notifier. Blocks until SIGINT/SIGTERM.",
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSources, "source", "s", "", "comma-separated platforms to scrape (default: all enabled)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	if len(cfg.Watch.Terms) == 0 {
		return errors.New("watch.terms is empty: nothing to watch")
	}
	platforms, err := parsePlatforms(watchSources)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"interval", cfg.Watch.Interval.String(),
		"terms", len(cfg.Watch.Terms),
		"sources", len(cfg.EnabledPlatforms()),
		"metrics_addr", cfg.Metrics.Addr,
	)

	jobStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer jobStore.Close()

	httpClient := &http.Client{}
	m := metrics.New()
	n := setupNotifier(cfg, httpClient, logger)
	agg := newAggregator(cfg, jobStore, n, m, httpClient, logger)
	sched := scheduler.NewScheduler(agg, cfg.Watch.Terms, platforms, cfg.Watch.Interval, cfg.Watch.TermDelay, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return m.Serve(ctx, cfg.Metrics.Addr, logger)
		})
	}
	g.Go(func() error {
		return sched.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
