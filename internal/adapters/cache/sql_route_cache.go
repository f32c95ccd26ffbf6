package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"route-history-service/internal/domain"
	"route-history-service/internal/platform/obs"
	"route-history-service/internal/ports"
)

// SQLRouteCache is the postgres flavor of the route cache, for deployments
// where several hosts share one store. Semantics match SqliteRouteCache.
type SQLRouteCache struct {
	DB *sql.DB
}

func NewSQLRouteCache(db *sql.DB) *SQLRouteCache {
	return &SQLRouteCache{DB: db}
}

func (c *SQLRouteCache) Get(ctx context.Context, deviceID int, date string) (_ []domain.TrackPoint, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.DB == nil {
		return nil, errors.New("route cache: db is nil")
	}

	q := `
	SELECT points, fetched_at
	FROM route_cache
	WHERE device_id = $1 AND date = $2;
	`

	var payload []byte
	var fetchedAt time.Time
	err = c.DB.QueryRowContext(ctx, q, deviceID, date).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	if expired(date, fetchedAt, time.Now()) {
		if _, derr := c.DB.ExecContext(ctx,
			`DELETE FROM route_cache WHERE device_id = $1 AND date = $2;`, deviceID, date); derr != nil {
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

func (c *SQLRouteCache) Put(ctx context.Context, deviceID int, date string, points []domain.TrackPoint) (err error) {
	defer obs.Time(ctx, "route.cache.Put")(&err)

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
	INSERT INTO route_cache (device_id, date, points, fetched_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (device_id, date) DO UPDATE
	SET points = EXCLUDED.points,
		fetched_at = EXCLUDED.fetched_at;
	`
	if _, err := c.DB.ExecContext(ctx, q, deviceID, date, payload, time.Now()); err != nil {
		return fmt.Errorf("put route cache device_id=%d date=%q: %w", deviceID, date, err)
	}

	return nil
}

func (c *SQLRouteCache) ClearExpired(ctx context.Context) (_ int, err error) {
	defer obs.Time(ctx, "route.cache.ClearExpired")(&err)

	if c.DB == nil {
		return 0, errors.New("route cache: db is nil")
	}

	now := time.Now()
	today := now.Format("2006-01-02")

	q := `
	DELETE FROM route_cache
	WHERE (date = $1 AND fetched_at < $2)
	   OR (date != $1 AND fetched_at < $3);
	`
	res, err := c.DB.ExecContext(ctx, q, today, now.Add(-maxAgeToday), now.Add(-maxAgePast))
	if err != nil {
		return 0, fmt.Errorf("clear expired route cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear expired route cache: rows affected: %w", err)
	}

	return int(n), nil
}

func (c *SQLRouteCache) ClearAll(ctx context.Context) error {
	if c.DB == nil {
		return errors.New("route cache: db is nil")
	}

	if _, err := c.DB.ExecContext(ctx, `DELETE FROM route_cache;`); err != nil {
		return fmt.Errorf("clear route cache: %w", err)
	}
	return nil
}

func (c *SQLRouteCache) Stats(ctx context.Context) (ports.CacheStats, error) {
	if c.DB == nil {
		return ports.CacheStats{}, errors.New("route cache: db is nil")
	}

	q := `
	SELECT COUNT(*), COALESCE(SUM(LENGTH(points)), 0),
	       MIN(fetched_at), MAX(fetched_at)
	FROM route_cache;
	`

	var count, size int
	var oldest, newest sql.NullTime
	if err := c.DB.QueryRowContext(ctx, q).Scan(&count, &size, &oldest, &newest); err != nil {
		return ports.CacheStats{}, fmt.Errorf("route cache stats: %w", err)
	}

	stats := ports.CacheStats{Count: count, ApproximateSizeBytes: size}
	if oldest.Valid {
		t := oldest.Time
		stats.OldestFetchedAt = &t
	}
	if newest.Valid {
		t := newest.Time
		stats.NewestFetchedAt = &t
	}

	return stats, nil
}
