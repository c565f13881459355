// Package quality computes cheap per-image metrics and classifies candidates
// as keep, soft, or drop before any expensive work happens.
//
// The gate is a pure function of pixel data and configured thresholds: dropped
// candidates never reach clustering or scoring, soft candidates continue with
// the verdict surfaced for diagnostics. Metrics are retained for all verdicts.
package quality
