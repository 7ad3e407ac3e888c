package main

import (
	"fmt"
	"strings"

	"github.com/amishk599/gigfinder/internal/model"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of every source and its settings.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	fmt.Printf("%-16s %-9s %-8s %-7s %s\n", "Source", "Status", "Timeout", "Max", "Note")
	fmt.Println(strings.Repeat("─", 56))

	enabled, disabled := 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		note := s.BaseURL
		if s.Platform == model.PlatformUpwork {
			note = "blocked by design"
		}
		fmt.Printf("%-16s %-9s %-8s %-7d %s\n", s.Platform, status, s.Timeout, s.MaxResults, note)
	}

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(cfg.Sources), enabled, disabled)
	fmt.Printf("Rate limit: %g req/s per source, burst %d\n", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	return nil
}
