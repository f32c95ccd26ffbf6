package ports

import (
	"context"
	"route-history-service/internal/domain"
	"time"
)

// CacheStats summarizes the route cache contents.
type CacheStats struct {
	Count                int
	ApproximateSizeBytes int
	OldestFetchedAt      *time.Time
	NewestFetchedAt      *time.Time
}

// RouteCache stores per-device per-day route payloads with time-based expiry:
// 24 hours for today's date (the data is still growing), 30 days for past
// dates. Implementations are durable across restarts and atomic per key.
type RouteCache interface {
	// Get returns the stored points for (deviceID, date) or nil on miss or
	// expiry. Expired entries should be lazily evicted.
	Get(ctx context.Context, deviceID int, date string) ([]domain.TrackPoint, error)
	// Put upserts the entry for (deviceID, date), resetting its fetch time.
	// Empty point sets are not stored.
	Put(ctx context.Context, deviceID int, date string, points []domain.TrackPoint) error
	// ClearExpired sweeps the whole store and returns the eviction count.
	ClearExpired(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
	Stats(ctx context.Context) (CacheStats, error)
}
