package geocode

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// cacheKey returns SHA-256 hex of the coordinate rounded to six decimal
// places (about 0.1 m).
func cacheKey(lat, lng float64) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%.6f|%.6f", lat, lng)))
	return fmt.Sprintf("%x", h)
}

// Cache stores reverse geocode answers, including misses, in SQLite.
type Cache struct {
	db  *sql.DB
	ttl time.Duration

	nowFunc func() time.Time
}

const cacheMigration = `
CREATE TABLE IF NOT EXISTS reverse_geocode_cache (
	coord_hash TEXT PRIMARY KEY,
	matched    INTEGER NOT NULL,
	result     TEXT,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reverse_geocode_cache_expires_at ON reverse_geocode_cache(expires_at);
`

// OpenCache opens (and migrates) the cache database at dsn. Entries older
// than ttl are ignored; ttl <= 0 disables expiry.
func OpenCache(ctx context.Context, dsn string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: open cache")
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "geocode: cache exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, cacheMigration); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "geocode: cache migrate")
	}

	return &Cache{db: db, ttl: ttl, nowFunc: time.Now}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns a cached answer. found is false when no live entry exists. A
// cached miss returns found=true with a nil result.
func (c *Cache) Get(ctx context.Context, lat, lng float64) (res *ReverseResult, found bool, err error) {
	key := cacheKey(lat, lng)

	var matched bool
	var payload sql.NullString
	err = c.db.QueryRowContext(ctx,
		`SELECT matched, result FROM reverse_geocode_cache WHERE coord_hash = ? AND expires_at > ?`,
		key, c.nowFunc().Unix(),
	).Scan(&matched, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "geocode: cache lookup")
	}

	zap.L().Debug("geocode cache hit", zap.String("key", key[:12]), zap.Bool("matched", matched))
	if !matched {
		return nil, true, nil
	}

	var r ReverseResult
	if err := json.Unmarshal([]byte(payload.String), &r); err != nil {
		return nil, false, eris.Wrap(err, "geocode: cache decode")
	}
	return &r, true, nil
}

// Put stores an answer. A nil result records a miss.
func (c *Cache) Put(ctx context.Context, lat, lng float64, res *ReverseResult) error {
	var payload sql.NullString
	if res != nil {
		data, err := json.Marshal(res)
		if err != nil {
			return eris.Wrap(err, "geocode: cache encode")
		}
		payload = sql.NullString{String: string(data), Valid: true}
	}

	expires := int64(1<<62 - 1)
	if c.ttl > 0 {
		expires = c.nowFunc().Add(c.ttl).Unix()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO reverse_geocode_cache (coord_hash, matched, result, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (coord_hash) DO UPDATE SET
			matched = excluded.matched,
			result = excluded.result,
			expires_at = excluded.expires_at`,
		cacheKey(lat, lng), res != nil, payload, expires,
	)
	return eris.Wrap(err, "geocode: cache store")
}

// CachedReverser consults a Cache before delegating to next.
type CachedReverser struct {
	next  Reverser
	cache *Cache
}

// NewCachedReverser wraps next with cache.
func NewCachedReverser(next Reverser, cache *Cache) *CachedReverser {
	return &CachedReverser{next: next, cache: cache}
}

// Reverse implements Reverser. Cache failures are logged and bypassed.
func (c *CachedReverser) Reverse(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}

	res, found, err := c.cache.Get(ctx, lat, lng)
	if err != nil {
		zap.L().Warn("geocode: cache read failed", zap.Error(err))
	} else if found {
		if res == nil {
			return nil, ErrNoResult
		}
		return res, nil
	}

	res, err = c.next.Reverse(ctx, lat, lng)
	switch {
	case err == nil:
		if perr := c.cache.Put(ctx, lat, lng, res); perr != nil {
			zap.L().Warn("geocode: cache write failed", zap.Error(perr))
		}
	case errors.Is(err, ErrNoResult):
		if perr := c.cache.Put(ctx, lat, lng, nil); perr != nil {
			zap.L().Warn("geocode: cache write failed", zap.Error(perr))
		}
	}
	return res, err
}
