// Package scoring assigns aesthetic scores to retained candidates. A
// configurable strategy produces the raw score (remote model or local
// heuristic) and a SQLite-backed cache keyed by content fingerprint makes
// repeated scans of unchanged files free.
package scoring
