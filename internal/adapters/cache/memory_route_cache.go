package cache

import (
	"context"
	"sync"
	"time"

	"route-history-service/internal/domain"
	"route-history-service/internal/ports"
)

type memoryKey struct {
	deviceID int
	date     string
}

type memoryEntry struct {
	points    []domain.TrackPoint
	fetchedAt time.Time
}

// MemoryRouteCache is an in-process route cache used by tests and as a
// degraded fallback when no durable store is configured.
type MemoryRouteCache struct {
	mu      sync.Mutex
	entries map[memoryKey]memoryEntry
}

func NewMemoryRouteCache() *MemoryRouteCache {
	return &MemoryRouteCache{entries: map[memoryKey]memoryEntry{}}
}

func (c *MemoryRouteCache) key(deviceID int, date string) memoryKey {
	return memoryKey{deviceID: deviceID, date: date}
}

func (c *MemoryRouteCache) Get(ctx context.Context, deviceID int, date string) ([]domain.TrackPoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[c.key(deviceID, date)]
	if !ok {
		return nil, nil
	}
	if expired(date, entry.fetchedAt, time.Now()) {
		delete(c.entries, c.key(deviceID, date))
		return nil, nil
	}
	return entry.points, nil
}

func (c *MemoryRouteCache) Put(ctx context.Context, deviceID int, date string, points []domain.TrackPoint) error {
	if len(points) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(deviceID, date)] = memoryEntry{points: points, fetchedAt: time.Now()}
	return nil
}

func (c *MemoryRouteCache) ClearExpired(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := 0
	for key, entry := range c.entries {
		if expired(key.date, entry.fetchedAt, time.Now()) {
			delete(c.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

func (c *MemoryRouteCache) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[memoryKey]memoryEntry{}
	return nil
}

func (c *MemoryRouteCache) Stats(ctx context.Context) (ports.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := ports.CacheStats{Count: len(c.entries)}
	for _, entry := range c.entries {
		stats.ApproximateSizeBytes += len(entry.points) * 64
		fetchedAt := entry.fetchedAt
		if stats.OldestFetchedAt == nil || fetchedAt.Before(*stats.OldestFetchedAt) {
			t := fetchedAt
			stats.OldestFetchedAt = &t
		}
		if stats.NewestFetchedAt == nil || fetchedAt.After(*stats.NewestFetchedAt) {
			t := fetchedAt
			stats.NewestFetchedAt = &t
		}
	}
	return stats, nil
}

// SetFetchedAt backdates an entry's fetch time. Test helper for expiry paths.
func (c *MemoryRouteCache) SetFetchedAt(deviceID int, date string, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[c.key(deviceID, date)]; ok {
		entry.fetchedAt = fetchedAt
		c.entries[c.key(deviceID, date)] = entry
	}
}
