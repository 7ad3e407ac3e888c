package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/gigfinder/internal/aggregator"
	"github.com/amishk599/gigfinder/internal/browse"
	"github.com/amishk599/gigfinder/internal/model"
	"github.com/amishk599/gigfinder/internal/query"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [term]",
	Short: "Interactively browse stored postings",
	Long: "Opens a platform picker and then a paged browser over stored postings.\n" +
		"Press r inside the browser to scrape the current term live.",
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// The TUI owns the terminal; only debug runs get log output, on stderr.
	logger := newLogger(io.Discard, false)
	if debug {
		logger = setupLogger(true)
	}

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	jobStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer jobStore.Close()

	engine := query.NewEngine(jobStore, cfg.Query.DefaultLimit)
	agg := newAggregator(cfg, jobStore, nil, nil, &http.Client{}, logger)
	term := strings.Join(args, " ")

	refresh := func(ctx context.Context, t string) (int, error) {
		if strings.TrimSpace(t) == "" {
			return 0, fmt.Errorf("enter a search term before refreshing")
		}
		return agg.Scrape(ctx, aggregator.Request{Term: t}).Added(), nil
	}

	for {
		choices, err := platformChoices(engine, agg.Platforms())
		if err != nil {
			return err
		}

		platform, ok, err := browse.RunPlatformPicker(choices)
		if err != nil {
			return fmt.Errorf("platform picker: %w", err)
		}
		if !ok {
			return nil
		}

		wantQuit, err := browse.Run(browse.Options{
			Engine:         engine,
			Term:           term,
			Platform:       platform,
			PageSize:       cfg.Query.DefaultLimit,
			Refresh:        refresh,
			RefreshTimeout: 2 * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("browser: %w", err)
		}
		if wantQuit {
			return nil
		}
	}
}

// platformChoices counts stored postings for "all" plus each registered
// platform.
func platformChoices(engine *query.Engine, platforms []model.Platform) ([]browse.PickerChoice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	all := append([]model.Platform{""}, platforms...)
	choices := make([]browse.PickerChoice, 0, len(all))
	for _, p := range all {
		page, err := engine.Query(ctx, query.Request{Platform: p, Limit: 1})
		if err != nil {
			return nil, err
		}
		choices = append(choices, browse.PickerChoice{Platform: p, Count: page.Total})
	}
	return choices, nil
}
