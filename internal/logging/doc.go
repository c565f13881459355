// Package logging assembles structured slog loggers and attribute helpers used
// across Lightbox components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and defines the shared attribute vocabulary (job IDs, order IDs,
// candidate names, stages) so log lines stay greppable across the scan
// pipeline and the print service. A no-op logger is provided for tests.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
