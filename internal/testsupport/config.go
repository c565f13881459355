package testsupport

import (
	"path/filepath"
	"testing"

	"lightbox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Scoring.CachePath = filepath.Join(base, "data", "scores.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithHistoryLimit overrides the terminal-job retention cap.
func WithHistoryLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scan.HistoryLimit = limit
	}
}

// WithWorkers overrides the scan worker pool size.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scan.Workers = workers
	}
}

// WithPrintCredentials fills the printing section with test credentials.
func WithPrintCredentials(apiKey, assetBase string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Printing.APIKey = apiKey
		cfg.Printing.AssetBaseURL = assetBase
	}
}
