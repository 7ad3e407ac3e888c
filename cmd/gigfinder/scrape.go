package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amishk599/gigfinder/internal/aggregator"
	"github.com/amishk599/gigfinder/internal/browse"
	"github.com/amishk599/gigfinder/internal/model"
	"github.com/amishk599/gigfinder/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	scrapeSources string
	scrapePage    int
	scrapeDryRun  bool
	scrapeNotify  bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <term>",
	Short: "Scrape every enabled source for a term",
	Long: "Fetches postings matching term from every enabled source, stores the new ones\n" +
		"and prints a per-source report. Blocked or failing sources never abort the run.",
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeSources, "source", "s", "", "comma-separated platforms to scrape (default: all enabled)")
	scrapeCmd.Flags().IntVarP(&scrapePage, "page", "p", 1, "result page to request from paginated sources")
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "scrape into a throwaway in-memory store")
	scrapeCmd.Flags().BoolVar(&scrapeNotify, "notify", false, "send new postings to the configured notifier")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	term := strings.Join(args, " ")

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	platforms, err := parsePlatforms(scrapeSources)
	if err != nil {
		return err
	}

	var jobStore model.JobStore
	if scrapeDryRun {
		jobStore = store.NewMemoryStore()
	} else {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		jobStore = s
	}
	defer jobStore.Close()

	httpClient := &http.Client{}
	var n model.Notifier
	if scrapeNotify {
		n = setupNotifier(cfg, httpClient, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := aggregator.Request{Term: term, Platforms: platforms, Page: scrapePage}

	var report aggregator.Report
	if !debug && isatty.IsTerminal(os.Stdout.Fd()) {
		spin := func(ctx context.Context, fn func(context.Context) (aggregator.Report, error)) (aggregator.Report, error) {
			return browse.RunLoader(ctx, fmt.Sprintf("Scraping %q", term), 2*time.Minute, fn)
		}
		report, err = scrapeWithLogsHeld(ctx, os.Stderr, spin, func(ctx context.Context, l *slog.Logger) aggregator.Report {
			return newAggregator(cfg, jobStore, n, nil, httpClient, l).Scrape(ctx, req)
		})
		if err != nil {
			return err
		}
	} else {
		agg := newAggregator(cfg, jobStore, n, nil, httpClient, logger)
		report = agg.Scrape(ctx, req)
	}

	printReport(os.Stdout, report, time.Now())
	return nil
}

type spinFunc func(ctx context.Context, fn func(context.Context) (aggregator.Report, error)) (aggregator.Report, error)

// scrapeWithLogsHeld runs scrape under spin with its logs buffered, since
// they would tear through the spinner frame. The logs are replayed to w once
// the scrape has returned.
func scrapeWithLogsHeld(
	ctx context.Context,
	w io.Writer,
	spin spinFunc,
	scrape func(ctx context.Context, logger *slog.Logger) aggregator.Report,
) (aggregator.Report, error) {
	var logs bytes.Buffer
	logger := newLogger(&logs, false)
	report, err := spin(ctx, func(ctx context.Context) (aggregator.Report, error) {
		return scrape(ctx, logger), nil
	})
	if err != nil {
		return report, err
	}
	if _, err := w.Write(logs.Bytes()); err != nil {
		return report, fmt.Errorf("replaying scrape logs: %w", err)
	}
	return report, nil
}

func printReport(w io.Writer, report aggregator.Report, now time.Time) {
	fmt.Fprintf(w, "%-16s %-9s %7s %5s %9s  %s\n", "Source", "Outcome", "Fetched", "New", "Took", "Error")
	fmt.Fprintln(w, strings.Repeat("─", 64))
	for _, sr := range report.Sources {
		errText := ""
		if sr.Err != nil {
			errText = sr.Err.Error()
		}
		fmt.Fprintf(w, "%-16s %-9s %7d %5d %9s  %s\n",
			sr.Platform, sr.Outcome, sr.Attempted, sr.Added, sr.Duration.Round(time.Millisecond), errText)
	}
	fmt.Fprintf(w, "\nTotal: %d fetched, %d new for %q\n", report.Attempted(), report.Added(), report.Term)
	if report.NotifyErr != nil {
		fmt.Fprintf(w, "Notification failed: %v\n", report.NotifyErr)
	}

	newJobs := report.NewJobs()
	if len(newJobs) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, j := range newJobs {
		fmt.Fprintf(w, "[%s] %s\n    %s · stored %s\n    %s\n",
			j.Platform, j.Title, j.Budget, humanize.RelTime(j.CreatedAt, now, "ago", "from now"), j.URL)
	}
}
