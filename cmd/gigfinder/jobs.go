package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/amishk599/gigfinder/internal/model"
	"github.com/amishk599/gigfinder/internal/query"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	jobsPlatform string
	jobsOffset   int
	jobsLimit    int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [term]",
	Short: "Search stored postings",
	Long: "Lists stored postings, newest first. Words longer than two characters in term\n" +
		"are matched against titles and descriptions; any one match is enough.",
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsPlatform, "platform", "", "only show postings from this platform")
	jobsCmd.Flags().IntVar(&jobsOffset, "offset", 0, "number of matching postings to skip")
	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 0, fmt.Sprintf("maximum postings to show (default from config, max %d)", query.MaxLimit))
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	var platform model.Platform
	if jobsPlatform != "" {
		if platform, err = model.ParsePlatform(jobsPlatform); err != nil {
			return err
		}
	}

	jobStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer jobStore.Close()

	engine := query.NewEngine(jobStore, cfg.Query.DefaultLimit)
	page, err := engine.Query(context.Background(), query.Request{
		Term:     strings.Join(args, " "),
		Platform: platform,
		Offset:   jobsOffset,
		Limit:    jobsLimit,
	})
	if err != nil {
		return err
	}

	printPage(os.Stdout, page, time.Now())
	return nil
}

func printPage(w io.Writer, page query.Page, now time.Time) {
	if page.Total == 0 {
		fmt.Fprintln(w, "No stored postings match.")
		return
	}

	fmt.Fprintf(w, "%-46s %-15s %-20s %s\n", "Title", "Platform", "Budget", "Stored")
	fmt.Fprintln(w, strings.Repeat("─", 96))
	for _, j := range page.Jobs {
		fmt.Fprintf(w, "%-46s %-15s %-20s %s\n",
			clip(j.Title, 46), j.Platform, clip(j.Budget, 20), humanize.RelTime(j.CreatedAt, now, "ago", "from now"))
		fmt.Fprintf(w, "  %s\n", j.URL)
	}

	if len(page.Jobs) == 0 {
		fmt.Fprintf(w, "\nOffset %d is past the last of %d postings\n", page.Offset, page.Total)
		return
	}
	fmt.Fprintf(w, "\nShowing %d-%d of %s postings\n",
		page.Offset+1, page.Offset+len(page.Jobs), humanize.Comma(int64(page.Total)))
	if page.HasMore() {
		fmt.Fprintf(w, "Next page: --offset %d --limit %d\n", page.Offset+len(page.Jobs), page.Limit)
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
