package cache

import (
	"context"
	"testing"
	"time"
)

func TestExpiredPolicy(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.Local)
	today := now.Format("2006-01-02")

	tests := []struct {
		name string
		date string
		age  time.Duration
		want bool
	}{
		{"today fresh", today, 23 * time.Hour, false},
		{"today stale", today, 25 * time.Hour, true},
		{"past fresh", "2025-01-10", 29 * 24 * time.Hour, false},
		{"past stale", "2025-01-10", 31 * 24 * time.Hour, true},
		{"past survives a day", "2025-01-10", 25 * time.Hour, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := expired(tc.date, now.Add(-tc.age), now); got != tc.want {
				t.Errorf("expired(%q, now-%v) = %v, want %v", tc.date, tc.age, got, tc.want)
			}
		})
	}
}

func TestMemoryRouteCache(t *testing.T) {
	c := NewMemoryRouteCache()
	ctx := context.Background()

	if got, err := c.Get(ctx, 1, "2025-01-15"); err != nil || got != nil {
		t.Fatalf("cold read: got %v, %v; want nil, nil", got, err)
	}

	if err := c.Put(ctx, 1, "2025-01-15", samplePoints(3)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got, _ := c.Get(ctx, 1, "2025-01-15"); len(got) != 3 {
		t.Fatalf("got %d points, want 3", len(got))
	}

	// Backdated past the policy window: gone on the next read.
	c.SetFetchedAt(1, "2025-01-15", time.Now().Add(-31*24*time.Hour))
	if got, _ := c.Get(ctx, 1, "2025-01-15"); got != nil {
		t.Fatal("stale entry survived the read")
	}

	if err := c.Put(ctx, 2, "2025-01-14", samplePoints(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	c.SetFetchedAt(2, "2025-01-14", time.Now().Add(-31*24*time.Hour))
	if err := c.Put(ctx, 3, "2025-01-14", samplePoints(1)); err != nil {
		t.Fatalf("put: %v", err)
	}

	deleted, err := c.ClearExpired(ctx)
	if err != nil {
		t.Fatalf("clear expired: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 1 {
		t.Errorf("count = %d, want 1", stats.Count)
	}

	if err := c.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if stats, _ := c.Stats(ctx); stats.Count != 0 {
		t.Errorf("count = %d after clear, want 0", stats.Count)
	}
}
