package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"route-history-service/internal/domain"
	"route-history-service/internal/ports"
)

// SQLite-backed route cache keyed by (device_id, date). Entries survive
// process restarts; expiry is enforced on read (lazy eviction) and by the
// ClearExpired sweep.
type SqliteRouteCache struct {
	DB *sql.DB
}

func NewSqliteRouteCache(db *sql.DB) *SqliteRouteCache {
	return &SqliteRouteCache{DB: db}
}

// Return stored points for the key, or nil on miss or expiry.
func (c *SqliteRouteCache) Get(ctx context.Context, deviceID int, date string) ([]domain.TrackPoint, error) {
	if c.DB == nil {
		return nil, errors.New("route cache: db is nil")
	}

	q := `
	SELECT points, fetched_at
	FROM route_cache
	WHERE device_id = ? AND date = ?;
	`

	var payload []byte
	var fetchedAtMillis int64
	err := c.DB.QueryRowContext(ctx, q, deviceID, date).Scan(&payload, &fetchedAtMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	fetchedAt := time.UnixMilli(fetchedAtMillis)
	if expired(date, fetchedAt, time.Now()) {
		// Lazy eviction; a failed delete only delays the sweep.
		if _, derr := c.DB.ExecContext(ctx,
			`DELETE FROM route_cache WHERE device_id = ? AND date = ?;`, deviceID, date); derr != nil {
			return nil, fmt.Errorf("get route cache: evict expired entry: %w", derr)
		}
		return nil, nil
	}

	var points []domain.TrackPoint
	if err := json.Unmarshal(payload, &points); err != nil {
		return nil, fmt.Errorf("get route cache: decode points: %w", err)
	}

	return points, nil
}

// Upsert the entry for (deviceID, date), resetting fetched_at to now.
// Empty point sets are never stored.
func (c *SqliteRouteCache) Put(ctx context.Context, deviceID int, date string, points []domain.TrackPoint) error {
	if c.DB == nil {
		return errors.New("route cache: db is nil")
	}

	if len(points) == 0 {
		return nil
	}

	payload, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("put route cache: encode points: %w", err)
	}

	q := `
	INSERT OR REPLACE INTO route_cache (device_id, date, points, fetched_at)
	VALUES (?, ?, ?, ?);
	`
	if _, err := c.DB.ExecContext(ctx, q, deviceID, date, payload, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("put route cache device_id=%d date=%q: %w", deviceID, date, err)
	}

	return nil
}

// Sweep the whole store, evicting per the freshness policy.
func (c *SqliteRouteCache) ClearExpired(ctx context.Context) (int, error) {
	if c.DB == nil {
		return 0, errors.New("route cache: db is nil")
	}

	now := time.Now()
	today := now.Format("2006-01-02")

	// Two age classes, two bulk deletes (date index keeps these cheap).
	q := `
	DELETE FROM route_cache
	WHERE (date = ? AND fetched_at < ?)
	   OR (date != ? AND fetched_at < ?);
	`
	res, err := c.DB.ExecContext(ctx, q,
		today, now.Add(-maxAgeToday).UnixMilli(),
		today, now.Add(-maxAgePast).UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired route cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear expired route cache: rows affected: %w", err)
	}

	return int(n), nil
}

func (c *SqliteRouteCache) ClearAll(ctx context.Context) error {
	if c.DB == nil {
		return errors.New("route cache: db is nil")
	}

	if _, err := c.DB.ExecContext(ctx, `DELETE FROM route_cache;`); err != nil {
		return fmt.Errorf("clear route cache: %w", err)
	}
	return nil
}

func (c *SqliteRouteCache) Stats(ctx context.Context) (ports.CacheStats, error) {
	if c.DB == nil {
		return ports.CacheStats{}, errors.New("route cache: db is nil")
	}

	q := `
	SELECT COUNT(*), COALESCE(SUM(LENGTH(points)), 0),
	       MIN(fetched_at), MAX(fetched_at)
	FROM route_cache;
	`

	var count, size int
	var oldestMillis, newestMillis sql.NullInt64
	if err := c.DB.QueryRowContext(ctx, q).Scan(&count, &size, &oldestMillis, &newestMillis); err != nil {
		return ports.CacheStats{}, fmt.Errorf("route cache stats: %w", err)
	}

	stats := ports.CacheStats{Count: count, ApproximateSizeBytes: size}
	if oldestMillis.Valid {
		t := time.UnixMilli(oldestMillis.Int64)
		stats.OldestFetchedAt = &t
	}
	if newestMillis.Valid {
		t := time.UnixMilli(newestMillis.Int64)
		stats.NewestFetchedAt = &t
	}

	return stats, nil
}
