package cache

import "time"

// Freshness policy: today's route is still growing, so it goes stale after a
// day; past days are immutable history and only age out after a month.
const (
	maxAgeToday = 24 * time.Hour
	maxAgePast  = 30 * 24 * time.Hour
)

// maxAgeFor returns the allowed entry age for a cache date, evaluated
// against the current local date.
func maxAgeFor(date string, now time.Time) time.Duration {
	if date == now.Format("2006-01-02") {
		return maxAgeToday
	}
	return maxAgePast
}

// expired applies the freshness policy to one entry.
func expired(date string, fetchedAt, now time.Time) bool {
	return now.Sub(fetchedAt) > maxAgeFor(date, now)
}
