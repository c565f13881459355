package config

import (
	"path/filepath"
	"strings"
)

// normalize trims string fields, expands paths, and backfills derived defaults
// so downstream code never sees empty path fields.
func (c *Config) normalize() error {
	var err error

	c.Paths.DataDir = strings.TrimSpace(c.Paths.DataDir)
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}

	c.Paths.LogDir = strings.TrimSpace(c.Paths.LogDir)
	if c.Paths.LogDir == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}

	if c.Scan.Workers <= 0 {
		c.Scan.Workers = defaultScanWorkers
	}
	if c.Scan.HistoryLimit < 0 {
		c.Scan.HistoryLimit = 0
	}
	if c.Scan.ShortlistSize <= 0 {
		c.Scan.ShortlistSize = defaultShortlistSize
	}

	c.Scoring.Backend = strings.ToLower(strings.TrimSpace(c.Scoring.Backend))
	if c.Scoring.Backend == "" {
		c.Scoring.Backend = defaultScoringBackend
	}
	c.Scoring.BaseURL = strings.TrimSpace(c.Scoring.BaseURL)
	c.Scoring.APIKey = strings.TrimSpace(c.Scoring.APIKey)
	c.Scoring.Model = strings.TrimSpace(c.Scoring.Model)
	if c.Scoring.TimeoutSeconds <= 0 {
		c.Scoring.TimeoutSeconds = defaultScoringTimeout
	}
	c.Scoring.CachePath = strings.TrimSpace(c.Scoring.CachePath)
	if c.Scoring.CachePath == "" {
		c.Scoring.CachePath = filepath.Join(c.Paths.DataDir, "scores.db")
	}
	if c.Scoring.CachePath, err = expandPath(c.Scoring.CachePath); err != nil {
		return err
	}

	c.Printing.BaseURL = strings.TrimRight(strings.TrimSpace(c.Printing.BaseURL), "/")
	if c.Printing.BaseURL == "" {
		c.Printing.BaseURL = defaultPrintBaseURL
	}
	c.Printing.APIKey = strings.TrimSpace(c.Printing.APIKey)
	c.Printing.AssetBaseURL = strings.TrimRight(strings.TrimSpace(c.Printing.AssetBaseURL), "/")
	if c.Printing.AssetExpiryHours <= 0 {
		c.Printing.AssetExpiryHours = defaultPrintAssetExpiry
	}
	if c.Printing.MaxAttempts <= 0 {
		c.Printing.MaxAttempts = defaultPrintMaxAttempts
	}
	if c.Printing.RetryBackoffMS <= 0 {
		c.Printing.RetryBackoffMS = defaultPrintRetryBackoffMS
	}
	if c.Printing.TimeoutSeconds <= 0 {
		c.Printing.TimeoutSeconds = defaultPrintTimeout
	}

	if c.Thumbnails.MaxEdge <= 0 {
		c.Thumbnails.MaxEdge = defaultThumbnailMaxEdge
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
