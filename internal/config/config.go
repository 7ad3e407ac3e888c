package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/gigfinder/internal/model"
)

const (
	// EnvPath names the environment variable holding the config path.
	EnvPath = "GIGFINDER_CONFIG"
	// DefaultPath is used when neither a flag nor EnvPath is set.
	DefaultPath = "config.yaml"

	defaultTimeout    = 30 * time.Second
	maxTimeout        = 60 * time.Second
	defaultMaxResults = 50
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

// Config is the root configuration for gigfinder.
type Config struct {
	Store        StoreConfig
	Sources      []SourceConfig // one per platform, in model.Platforms order
	RateLimit    RateLimitConfig
	Query        QueryConfig
	Watch        WatchConfig
	Notification NotificationConfig
	Metrics      MetricsConfig
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig holds the per-platform adapter settings.
type SourceConfig struct {
	Platform   model.Platform
	Enabled    bool
	Timeout    time.Duration
	MaxResults int
	BaseURL    string // empty means the public site
}

// RateLimitConfig controls per-platform request pacing.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // zero disables limiting
	Burst             int     `yaml:"burst"`
}

type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
}

// WatchConfig drives the scheduler loop.
type WatchConfig struct {
	Interval  time.Duration
	TermDelay time.Duration // pause between terms within one cycle
	Terms     []string
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// Source returns the settings for p.
func (c *Config) Source(p model.Platform) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Platform == p {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// EnabledPlatforms lists the enabled platforms in display order.
func (c *Config) EnabledPlatforms() []model.Platform {
	var out []model.Platform
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s.Platform)
		}
	}
	return out
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Store        StoreConfig        `yaml:"store"`
	Sources      []rawSourceConfig  `yaml:"sources"`
	RateLimit    *RateLimitConfig   `yaml:"rate_limit"`
	Query        QueryConfig        `yaml:"query"`
	Watch        rawWatchConfig     `yaml:"watch"`
	Notification NotificationConfig `yaml:"notification"`
	Metrics      *MetricsConfig     `yaml:"metrics"`
}

type rawSourceConfig struct {
	Name       string `yaml:"name"`
	Enabled    *bool  `yaml:"enabled"`
	Timeout    string `yaml:"timeout"`
	MaxResults int    `yaml:"max_results"`
	BaseURL    string `yaml:"base_url"`
}

type rawWatchConfig struct {
	Interval  string   `yaml:"interval"`
	TermDelay string   `yaml:"term_delay"`
	Terms     []string `yaml:"terms"`
}

// Default returns the configuration used when no file exists: every source
// enabled with default settings, log notifications, a local database.
func Default() *Config {
	cfg := &Config{
		Store:     StoreConfig{Path: "jobs.db"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
		Query:     QueryConfig{DefaultLimit: defaultQueryLimit},
		Watch: WatchConfig{
			Interval:  30 * time.Minute,
			TermDelay: 2 * time.Second,
		},
		Notification: NotificationConfig{Type: "log"},
		Metrics:      MetricsConfig{Addr: ":9090"},
	}
	for _, p := range model.Platforms {
		cfg.Sources = append(cfg.Sources, SourceConfig{
			Platform:   p,
			Enabled:    true,
			Timeout:    defaultTimeout,
			MaxResults: defaultMaxResults,
		})
	}
	return cfg
}

// ResolvePath picks the config path: flagPath, then $GIGFINDER_CONFIG, then
// DefaultPath. explicit is false only for the DefaultPath fallback.
func ResolvePath(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// LoadOrDefault loads the resolved config file. A missing file at the
// default location yields Default(); a missing explicit path is an error.
func LoadOrDefault(flagPath string) (*Config, string, error) {
	path, explicit := ResolvePath(flagPath)
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), "", nil
	}
	return cfg, path, err
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	if raw.Store.Path != "" {
		cfg.Store.Path = raw.Store.Path
	}
	if raw.RateLimit != nil {
		cfg.RateLimit = *raw.RateLimit
	}
	if raw.Query.DefaultLimit != 0 {
		cfg.Query.DefaultLimit = raw.Query.DefaultLimit
	}
	if raw.Notification.Type != "" {
		cfg.Notification = raw.Notification
	}
	if raw.Metrics != nil {
		cfg.Metrics = *raw.Metrics
	}

	if raw.Watch.Interval != "" {
		cfg.Watch.Interval, err = time.ParseDuration(raw.Watch.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse watch.interval %q: %w", raw.Watch.Interval, err)
		}
	}
	if raw.Watch.TermDelay != "" {
		cfg.Watch.TermDelay, err = time.ParseDuration(raw.Watch.TermDelay)
		if err != nil {
			return nil, fmt.Errorf("parse watch.term_delay %q: %w", raw.Watch.TermDelay, err)
		}
	}
	cfg.Watch.Terms = raw.Watch.Terms

	seen := make(map[model.Platform]bool)
	for i, rs := range raw.Sources {
		p, err := model.ParsePlatform(rs.Name)
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if seen[p] {
			return nil, fmt.Errorf("sources[%d]: duplicate source %q", i, rs.Name)
		}
		seen[p] = true

		sc, _ := cfg.Source(p)
		if rs.Enabled != nil {
			sc.Enabled = *rs.Enabled
		}
		if rs.Timeout != "" {
			sc.Timeout, err = time.ParseDuration(rs.Timeout)
			if err != nil {
				return nil, fmt.Errorf("parse sources[%d].timeout %q: %w", i, rs.Timeout, err)
			}
		}
		if rs.MaxResults != 0 {
			sc.MaxResults = rs.MaxResults
		}
		sc.BaseURL = strings.TrimSpace(rs.BaseURL)
		cfg.setSource(sc)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setSource(sc SourceConfig) {
	for i := range c.Sources {
		if c.Sources[i].Platform == sc.Platform {
			c.Sources[i] = sc
			return
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if len(cfg.EnabledPlatforms()) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}
	for _, s := range cfg.Sources {
		if s.Timeout <= 0 || s.Timeout > maxTimeout {
			return fmt.Errorf("sources[%s].timeout must be in (0, %v], got %v", s.Platform, maxTimeout, s.Timeout)
		}
		if s.MaxResults < 0 {
			return fmt.Errorf("sources[%s].max_results must not be negative, got %d", s.Platform, s.MaxResults)
		}
		if s.BaseURL != "" && !strings.HasPrefix(s.BaseURL, "http://") && !strings.HasPrefix(s.BaseURL, "https://") {
			return fmt.Errorf("sources[%s].base_url must be an http(s) URL, got %q", s.Platform, s.BaseURL)
		}
	}

	if cfg.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative, got %v", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.Query.DefaultLimit <= 0 || cfg.Query.DefaultLimit > maxQueryLimit {
		return fmt.Errorf("query.default_limit must be between 1 and %d, got %d", maxQueryLimit, cfg.Query.DefaultLimit)
	}
	if cfg.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %v", cfg.Watch.Interval)
	}
	if cfg.Watch.TermDelay < 0 {
		return fmt.Errorf("watch.term_delay must not be negative, got %v", cfg.Watch.TermDelay)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}
