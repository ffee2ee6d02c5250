package places

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Cache is a persistent geocode result cache backed by a local sqlite file.
// Non-matches are cached too so repeated bad queries skip the API.
type Cache struct {
	db      *sql.DB
	ttlDays int
}

// OpenCache opens (and if needed initializes) the sqlite cache at path.
// A ttlDays of 0 disables expiry.
func OpenCache(path string, ttlDays int) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "places: open cache")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS places_cache (
			query_hash TEXT PRIMARY KEY,
			result     TEXT NOT NULL,
			matched    INTEGER NOT NULL,
			cached_at  INTEGER NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, eris.Wrap(err, "places: init cache schema")
	}

	return &Cache{db: db, ttlDays: ttlDays}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// cacheKey returns SHA-256 hex of the normalized query.
func cacheKey(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// Get looks up a cached match, respecting TTL if configured.
func (c *Cache) Get(ctx context.Context, query string) (*Match, bool) {
	key := cacheKey(query)

	q := "SELECT result FROM places_cache WHERE query_hash = ?"
	args := []any{key}
	if c.ttlDays > 0 {
		q += " AND cached_at > ?"
		args = append(args, time.Now().AddDate(0, 0, -c.ttlDays).Unix())
	}

	var payload string
	if err := c.db.QueryRowContext(ctx, q, args...).Scan(&payload); err != nil {
		return nil, false
	}

	var m Match
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		zap.L().Warn("places: corrupt cache entry", zap.String("key", key[:12]), zap.Error(err))
		return nil, false
	}

	zap.L().Debug("places: cache hit", zap.String("key", key[:12]), zap.Bool("matched", m.Matched))
	return &m, true
}

// Put stores a match (or non-match) for a query.
func (c *Cache) Put(ctx context.Context, query string, m *Match) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "places: marshal cache entry")
	}

	matched := 0
	if m.Matched {
		matched = 1
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO places_cache (query_hash, result, matched, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (query_hash) DO UPDATE SET
			result = excluded.result,
			matched = excluded.matched,
			cached_at = excluded.cached_at`,
		cacheKey(query), string(payload), matched, time.Now().Unix(),
	)
	if err != nil {
		return eris.Wrap(err, "places: store cache entry")
	}
	return nil
}
