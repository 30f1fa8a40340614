// Package transcache persists translations in a small SQLite store so
// repeated runs never pay for the same text twice. The cache is advisory:
// every operation on a disabled cache is a cheap no-op, and a miss never
// blocks processing.
package transcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS translations (
    source_text     TEXT NOT NULL,
    target_language TEXT NOT NULL,
    translated_text TEXT NOT NULL,
    created_at      TEXT NOT NULL,
    expires_at      TEXT NOT NULL,
    PRIMARY KEY (source_text, target_language)
);
`

// Cache is a wall-clock-bounded (text, language) -> translation store.
// A nil Cache is valid and misses on every lookup.
type Cache struct {
	db   *sql.DB
	path string
}

// Stats summarizes cache contents for the CLI.
type Stats struct {
	Entries int64
	Expired int64
	Path    string
}

// Open connects to (or creates) the cache database at path. An empty path
// disables caching and returns a nil Cache.
func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
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

// Get returns the cached translation for (text, lang). Expired rows are
// deleted and reported as misses.
func (c *Cache) Get(ctx context.Context, text, lang string) (string, bool, error) {
	if c == nil || c.db == nil {
		return "", false, nil
	}
	var translated, expiresAt string
	err := c.db.QueryRowContext(
		ctx,
		`SELECT translated_text, expires_at FROM translations
         WHERE source_text = ? AND target_language = ?`,
		text, lang,
	).Scan(&translated, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}

	expiry, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil || !time.Now().UTC().Before(expiry) {
		_, _ = c.db.ExecContext(ctx,
			`DELETE FROM translations WHERE source_text = ? AND target_language = ?`,
			text, lang)
		return "", false, nil
	}
	return translated, true, nil
}

// Put stores a translation with the given TTL, replacing any previous entry
// for the same key in one statement so readers never see a partial row.
func (c *Cache) Put(ctx context.Context, text, lang, translated string, ttl time.Duration) error {
	if c == nil || c.db == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO translations (source_text, target_language, translated_text, created_at, expires_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(source_text, target_language) DO UPDATE SET
             translated_text = excluded.translated_text,
             created_at = excluded.created_at,
             expires_at = excluded.expires_at`,
		text, lang, translated,
		now.Format(time.RFC3339Nano),
		now.Add(ttl).Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Evict removes every entry that expired at or before now.
func (c *Cache) Evict(ctx context.Context, now time.Time) (int64, error) {
	if c == nil || c.db == nil {
		return 0, nil
	}
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM translations WHERE expires_at <= ?`,
		now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("cache evict: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache evict count: %w", err)
	}
	return removed, nil
}

// Stats reports entry counts for the CLI.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	if c == nil || c.db == nil {
		return Stats{}, nil
	}
	stats := Stats{Path: c.path}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM translations`).Scan(&stats.Entries); err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM translations WHERE expires_at <= ?`, now).Scan(&stats.Expired); err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	if c == nil || c.db == nil {
		return nil
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM translations`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}
