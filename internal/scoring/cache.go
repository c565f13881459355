package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache persists aesthetic scores keyed by content fingerprint so repeated
// scans of unchanged files never re-invoke the scoring backend.
type Cache struct {
	db   *sql.DB
	path string
}

// CacheEntry is one persisted score.
type CacheEntry struct {
	Fingerprint string
	Score       float64
	Source      string
	CreatedAt   time.Time
}

// CacheStats summarizes the persisted cache contents.
type CacheStats struct {
	Entries int64
	Oldest  time.Time
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS scores (
    fingerprint TEXT PRIMARY KEY,
    score REAL NOT NULL,
    source TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`

// OpenCache initializes or connects to the score database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Cache{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file location.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Get returns the cached entry for a fingerprint, reporting whether one exists.
func (c *Cache) Get(ctx context.Context, fingerprint string) (CacheEntry, bool, error) {
	var entry CacheEntry
	var createdAt string
	err := c.db.QueryRowContext(
		ctx,
		`SELECT fingerprint, score, source, created_at FROM scores WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&entry.Fingerprint, &entry.Score, &entry.Source, &createdAt)
	if err == sql.ErrNoRows {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("query score: %w", err)
	}
	if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		entry.CreatedAt = parsed
	}
	return entry, true, nil
}

// Put records a score for a fingerprint. A concurrent writer that lands first
// wins; losing the race is not an error because both writers scored identical
// bytes.
func (c *Cache) Put(ctx context.Context, entry CacheEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := c.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO scores (fingerprint, score, source, created_at) VALUES (?, ?, ?, ?)`,
		entry.Fingerprint,
		entry.Score,
		entry.Source,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// Stats reports entry count and the oldest record time.
func (c *Cache) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	var oldest sql.NullString
	err := c.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*), MIN(created_at) FROM scores`,
	).Scan(&stats.Entries, &oldest)
	if err != nil {
		return CacheStats{}, fmt.Errorf("query stats: %w", err)
	}
	if oldest.Valid {
		if parsed, parseErr := time.Parse(time.RFC3339Nano, oldest.String); parseErr == nil {
			stats.Oldest = parsed
		}
	}
	return stats, nil
}

// Prune removes entries older than the cutoff and returns how many were deleted.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(
		ctx,
		`DELETE FROM scores WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune scores: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}
