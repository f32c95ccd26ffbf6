package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"route-history-service/internal/domain"
	"route-history-service/internal/ports"
)

const redisKeyPrefix = "route:"

// redisEntry is the stored envelope. Keys always carry the 30-day TTL;
// the stricter 24-hour rule for today's date is enforced on read, because
// "today" becomes "a past date" while the entry sits in the store.
type redisEntry struct {
	FetchedAt time.Time           `json:"fetched_at"`
	Points    []domain.TrackPoint `json:"points"`
}

// RedisRouteCache is a route cache backed by a shared redis instance.
type RedisRouteCache struct {
	Client *redis.Client
}

func NewRedisRouteCache(client *redis.Client) *RedisRouteCache {
	return &RedisRouteCache{Client: client}
}

func redisKey(deviceID int, date string) string {
	return fmt.Sprintf("%s%d:%s", redisKeyPrefix, deviceID, date)
}

func (c *RedisRouteCache) Get(ctx context.Context, deviceID int, date string) ([]domain.TrackPoint, error) {
	if c.Client == nil {
		return nil, errors.New("route cache: redis client is nil")
	}

	raw, err := c.Client.Get(ctx, redisKey(deviceID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get route cache: redis get: %w", err)
	}

	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("get route cache: decode entry: %w", err)
	}

	if expired(date, entry.FetchedAt, time.Now()) {
		if err := c.Client.Del(ctx, redisKey(deviceID, date)).Err(); err != nil {
			return nil, fmt.Errorf("get route cache: evict expired entry: %w", err)
		}
		return nil, nil
	}

	return entry.Points, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, deviceID int, date string, points []domain.TrackPoint) error {
	if c.Client == nil {
		return errors.New("route cache: redis client is nil")
	}

	if len(points) == 0 {
		return nil
	}

	payload, err := json.Marshal(redisEntry{FetchedAt: time.Now(), Points: points})
	if err != nil {
		return fmt.Errorf("put route cache: encode entry: %w", err)
	}

	if err := c.Client.Set(ctx, redisKey(deviceID, date), payload, maxAgePast).Err(); err != nil {
		return fmt.Errorf("put route cache device_id=%d date=%q: %w", deviceID, date, err)
	}

	return nil
}

func (c *RedisRouteCache) ClearExpired(ctx context.Context) (int, error) {
	if c.Client == nil {
		return 0, errors.New("route cache: redis client is nil")
	}

	deleted := 0
	iter := c.Client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		_, date, ok := parseRedisKey(key)
		if !ok {
			continue
		}

		raw, err := c.Client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("clear expired route cache: redis get %q: %w", key, err)
		}

		var entry redisEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return deleted, fmt.Errorf("clear expired route cache: decode %q: %w", key, err)
		}

		if expired(date, entry.FetchedAt, time.Now()) {
			if err := c.Client.Del(ctx, key).Err(); err != nil {
				return deleted, fmt.Errorf("clear expired route cache: redis del %q: %w", key, err)
			}
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("clear expired route cache: scan: %w", err)
	}

	return deleted, nil
}

func (c *RedisRouteCache) ClearAll(ctx context.Context) error {
	if c.Client == nil {
		return errors.New("route cache: redis client is nil")
	}

	iter := c.Client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("clear route cache: redis del %q: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("clear route cache: scan: %w", err)
	}

	return nil
}

func (c *RedisRouteCache) Stats(ctx context.Context) (ports.CacheStats, error) {
	if c.Client == nil {
		return ports.CacheStats{}, errors.New("route cache: redis client is nil")
	}

	stats := ports.CacheStats{}
	iter := c.Client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := c.Client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return ports.CacheStats{}, fmt.Errorf("route cache stats: redis get %q: %w", iter.Val(), err)
		}

		var entry redisEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return ports.CacheStats{}, fmt.Errorf("route cache stats: decode %q: %w", iter.Val(), err)
		}

		stats.Count++
		stats.ApproximateSizeBytes += len(raw)

		fetchedAt := entry.FetchedAt
		if stats.OldestFetchedAt == nil || fetchedAt.Before(*stats.OldestFetchedAt) {
			t := fetchedAt
			stats.OldestFetchedAt = &t
		}
		if stats.NewestFetchedAt == nil || fetchedAt.After(*stats.NewestFetchedAt) {
			t := fetchedAt
			stats.NewestFetchedAt = &t
		}
	}
	if err := iter.Err(); err != nil {
		return ports.CacheStats{}, fmt.Errorf("route cache stats: scan: %w", err)
	}

	return stats, nil
}

// parseRedisKey splits "route:<device>:<date>" back into its parts.
func parseRedisKey(key string) (deviceID int, date string, ok bool) {
	rest, found := strings.CutPrefix(key, redisKeyPrefix)
	if !found {
		return 0, "", false
	}
	idStr, date, found := strings.Cut(rest, ":")
	if !found {
		return 0, "", false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, "", false
	}
	return id, date, true
}
