// Package config loads, normalizes, and validates Lightbox configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need: gate thresholds, clustering distances, scoring backend
// selection, print provider credentials, and retention limits.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
