package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/amishk599/gigfinder/internal/adapter"
	"github.com/amishk599/gigfinder/internal/aggregator"
	"github.com/amishk599/gigfinder/internal/config"
	"github.com/amishk599/gigfinder/internal/model"
	"github.com/amishk599/gigfinder/internal/notifier"
	"github.com/amishk599/gigfinder/internal/ratelimit"
	"github.com/amishk599/gigfinder/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "gigfinder",
	Short: "Freelance and remote job aggregator",
	Long: "gigfinder scrapes Freelancer, RemoteOK and WeWorkRemotely for a search term,\n" +
		"keeps every posting in a local SQLite store and lets you search it later.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvPath+" env var or ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig falls back to built-in defaults when no config file exists and
// none was asked for explicitly.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg, path, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if path == "" {
		logger.Debug("no config file, using defaults")
	} else {
		logger.Debug("config loaded", "path", path)
	}
	return cfg, nil
}

// setupLogger writes to stderr so command output on stdout stays pipeable.
func setupLogger(dbg bool) *slog.Logger {
	return newLogger(os.Stderr, dbg)
}

func newLogger(w io.Writer, dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func createSource(sc config.SourceConfig, httpClient *http.Client, logger *slog.Logger) (model.JobSource, bool) {
	opts := adapter.Options{BaseURL: sc.BaseURL, Timeout: sc.Timeout, MaxResults: sc.MaxResults}
	switch sc.Platform {
	case model.PlatformFreelancer:
		return adapter.NewFreelancerAdapter(httpClient, opts, logger), true
	case model.PlatformRemoteOK:
		return adapter.NewRemoteOKAdapter(httpClient, opts, logger), true
	case model.PlatformWeWorkRemotely:
		return adapter.NewWeWorkRemotelyAdapter(httpClient, opts, logger), true
	case model.PlatformUpwork:
		return adapter.NewUpworkAdapter(logger), true
	default:
		logger.Warn("unsupported platform, skipping", "platform", sc.Platform)
		return nil, false
	}
}

// buildSources creates one rate-limited source per enabled platform.
// Upwork never touches the network and is left unwrapped.
func buildSources(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.JobSource {
	limiter := ratelimit.NewPlatformLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	var sources []model.JobSource
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		src, ok := createSource(sc, httpClient, logger)
		if !ok {
			continue
		}
		if sc.Platform != model.PlatformUpwork {
			src = ratelimit.NewRateLimitedSource(src, limiter)
		}
		sources = append(sources, src)
		logger.Debug("registered source", "platform", sc.Platform, "timeout", sc.Timeout.String(), "max_results", sc.MaxResults)
	}
	return sources
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Store.Path, err)
	}
	return s, nil
}

func newAggregator(
	cfg *config.Config,
	jobStore model.JobStore,
	n model.Notifier,
	recorder aggregator.Recorder,
	httpClient *http.Client,
	logger *slog.Logger,
) *aggregator.Aggregator {
	return aggregator.New(buildSources(cfg, httpClient, logger), jobStore, n, recorder, logger)
}

// parsePlatforms reads a comma-separated platform list such as
// "freelancer,wwr".
func parsePlatforms(csv string) ([]model.Platform, error) {
	var out []model.Platform
	for _, name := range strings.Split(csv, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := model.ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
