// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file, a .env file and env vars.
// - External errors must be wrapped via this package's sentinel errors.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address of the read API, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RankingsDir holds the {type}_{className}.json category files.
	RankingsDir string `koanf:"rankings_dir"`

	// EventsFile is the primary-source events array, rewritten in place by link-events.
	EventsFile string `koanf:"events_file"`

	// OutputDir receives athlete-index.json, club-stats.json and lapcenter-runners.json.
	OutputDir string `koanf:"output_dir"`

	// TimingBaseURL is the root of the timing-source site.
	TimingBaseURL string `koanf:"timing_base_url"`

	// UserAgent is sent with every timing-source request.
	UserAgent string `koanf:"user_agent"`

	// RequestDelayMS is the pause between two timing-source requests.
	RequestDelayMS int `koanf:"request_delay_ms"`

	// FetchTimeoutMS bounds a single timing-source request.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// EventLimit caps events handled by one scrape-timing run (0 = no limit).
	EventLimit int `koanf:"event_limit"`

	// FlushEvery writes scrape output after this many processed events.
	FlushEvery int `koanf:"flush_every"`

	// PushgatewayURL, when set, receives the metrics registry after each batch stage.
	PushgatewayURL string `koanf:"pushgateway_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		RankingsDir:    filepath.Join("data", "rankings"),
		EventsFile:     filepath.Join("data", "events.json"),
		OutputDir:      "data",
		TimingBaseURL:  "https://mulka2.com/lapcenter/",
		UserAgent:      "olrank/1.0 (+batch indexer)",
		RequestDelayMS: 1500,
		FetchTimeoutMS: 20_000,
		EventLimit:     0,
		FlushEvery:     10,
	}
}

// RequestDelay returns RequestDelayMS as a duration.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.RankingsDir) == "":
		return fmt.Errorf("%w: rankings_dir must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.EventsFile) == "":
		return fmt.Errorf("%w: events_file must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.OutputDir) == "":
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RequestDelayMS < 0:
		return fmt.Errorf("%w: request_delay_ms must be >= 0", ErrInvalidConfig)
	case c.FetchTimeoutMS <= 0:
		return fmt.Errorf("%w: fetch_timeout_ms must be > 0", ErrInvalidConfig)
	case c.EventLimit < 0:
		return fmt.Errorf("%w: event_limit must be >= 0", ErrInvalidConfig)
	case c.FlushEvery <= 0:
		return fmt.Errorf("%w: flush_every must be > 0", ErrInvalidConfig)
	}
	return nil
}
