package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validateCluster(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validatePrinting(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Workers <= 0 {
		return errors.New("scan.workers must be positive")
	}
	if c.Scan.ShortlistSize <= 0 {
		return errors.New("scan.shortlist_size must be positive")
	}
	return nil
}

func (c *Config) validateQuality() error {
	if c.Quality.BrightnessSoft < c.Quality.BrightnessDrop {
		return errors.New("quality.brightness_soft must not be below quality.brightness_drop")
	}
	if c.Quality.SharpnessSoft < c.Quality.SharpnessDrop {
		return errors.New("quality.sharpness_soft must not be below quality.sharpness_drop")
	}
	if c.Quality.MinDimension <= 0 {
		return errors.New("quality.min_dimension must be positive")
	}
	if c.Quality.MinAspect <= 0 || c.Quality.MaxAspect <= c.Quality.MinAspect {
		return errors.New("quality aspect bounds must satisfy 0 < min_aspect < max_aspect")
	}
	return nil
}

func (c *Config) validateCluster() error {
	if c.Cluster.DistanceThreshold < 0 || c.Cluster.DistanceThreshold > 64 {
		return errors.New("cluster.distance_threshold must be between 0 and 64 bits")
	}
	if c.Cluster.KeepPerCluster <= 0 {
		return errors.New("cluster.keep_per_cluster must be positive")
	}
	if c.Cluster.ComparisonWindow < 0 {
		return errors.New("cluster.comparison_window must not be negative")
	}
	return nil
}

func (c *Config) validateScoring() error {
	switch c.Scoring.Backend {
	case ScoringBackendHeuristic:
		return nil
	case ScoringBackendModel:
		if c.Scoring.BaseURL == "" {
			return errors.New("scoring.base_url must be set when scoring.backend is \"model\"")
		}
		return nil
	default:
		return fmt.Errorf("scoring.backend must be \"model\" or \"heuristic\", got %q", c.Scoring.Backend)
	}
}

func (c *Config) validatePrinting() error {
	// API key and asset base are checked at submission time so the daemon can
	// run scans without print credentials configured.
	if c.Printing.BaseURL == "" {
		return errors.New("printing.base_url must be set")
	}
	if c.Printing.MaxAttempts <= 0 {
		return errors.New("printing.max_attempts must be positive")
	}
	return nil
}
