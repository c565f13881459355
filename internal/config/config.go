package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Scan contains scan job scheduling and shortlist sizing settings.
type Scan struct {
	Workers       int `toml:"workers"`
	HistoryLimit  int `toml:"history_limit"`
	ShortlistSize int `toml:"shortlist_size"`
}

// Quality contains the gate thresholds applied to every candidate image.
type Quality struct {
	BrightnessDrop float64 `toml:"brightness_drop"`
	BrightnessSoft float64 `toml:"brightness_soft"`
	ContrastDrop   float64 `toml:"contrast_drop"`
	SharpnessDrop  float64 `toml:"sharpness_drop"`
	SharpnessSoft  float64 `toml:"sharpness_soft"`
	MinDimension   int     `toml:"min_dimension"`
	MinAspect      float64 `toml:"min_aspect"`
	MaxAspect      float64 `toml:"max_aspect"`
}

// Cluster contains near-duplicate grouping settings.
type Cluster struct {
	DistanceThreshold int `toml:"distance_threshold"`
	KeepPerCluster    int `toml:"keep_per_cluster"`
	// ComparisonWindow bounds how many open clusters a new candidate is
	// compared against, newest first. Zero means all open clusters.
	ComparisonWindow int `toml:"comparison_window"`
}

// Scoring contains aesthetic scoring backend and cache settings.
type Scoring struct {
	Backend         string `toml:"backend"`
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	Model           string `toml:"model"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CachePath       string `toml:"cache_path"`
	FallbackOnError bool   `toml:"fallback_on_error"`
}

// Printing contains remote print provider settings.
type Printing struct {
	BaseURL          string `toml:"base_url"`
	APIKey           string `toml:"api_key"`
	AssetBaseURL     string `toml:"asset_base_url"`
	AssetExpiryHours int    `toml:"asset_expiry_hours"`
	MaxAttempts      int    `toml:"max_attempts"`
	RetryBackoffMS   int    `toml:"retry_backoff_ms"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// Thumbnails contains settings for the job-scoped thumbnail store.
type Thumbnails struct {
	Enabled bool `toml:"enabled"`
	MaxEdge int  `toml:"max_edge"`
}

// Notifications contains settings for ntfy event delivery.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Lightbox.
//
// Configuration sections by subsystem:
//   - Paths: data directory, log directory, and API bind address
//   - Scan: worker pool size, job history retention, shortlist size
//   - Quality: gate thresholds for keep/soft/drop verdicts
//   - Cluster: perceptual-hash distance threshold and retention per cluster
//   - Scoring: aesthetic backend selection and score cache location
//   - Printing: remote print API connection and retry settings
//   - Thumbnails: job-scoped thumbnail generation
//   - Notifications: ntfy topic for scan and order events
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Scan          Scan          `toml:"scan"`
	Quality       Quality       `toml:"quality"`
	Cluster       Cluster       `toml:"cluster"`
	Scoring       Scoring       `toml:"scoring"`
	Printing      Printing      `toml:"printing"`
	Thumbnails    Thumbnails    `toml:"thumbnails"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lightbox/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lightbox.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.ThumbnailDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Scoring.CachePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create score cache directory %q: %w", dir, err)
		}
	}
	return nil
}

// ThumbnailDir returns the directory holding job-scoped thumbnails.
func (c *Config) ThumbnailDir() string {
	return filepath.Join(c.Paths.DataDir, "thumbs")
}

// LockFilePath returns the daemon single-instance lock file location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "lightbox.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
