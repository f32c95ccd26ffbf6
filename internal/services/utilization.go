package services

import (
	"fmt"
	"math"
	"route-history-service/internal/domain"
	"time"
)

// Fixed lunch-break deduction applied to the office-hour window.
const lunchBreakMinutes = 60

// UtilizationPercent estimates how much of the office-hour window a vehicle
// spent moving, as a whole percentage capped at 100.
//
// Points outside [startHour, endHour) local time are ignored. The moving
// ratio (points with speed > 0 over all office-hour points) scales the
// theoretical window, which is then measured against the window minus a
// fixed lunch break.
func UtilizationPercent(points []domain.TrackPoint, startHour, endHour int) int {
	if len(points) == 0 {
		return 0
	}

	officeCount := 0
	movingCount := 0
	for _, p := range points {
		// Vendors report in mixed zones (Siam GPS stamps are UTC); the
		// office-hour window is a local-time concept.
		hour := p.Timestamp.In(time.Local).Hour()
		if hour < startHour || hour >= endHour {
			continue
		}
		officeCount++
		if p.SpeedKph > 0 {
			movingCount++
		}
	}

	if officeCount == 0 {
		return 0
	}

	theoreticalMinutes := float64((endHour - startHour) * 60)
	effectiveMinutes := math.Max(0, theoreticalMinutes-lunchBreakMinutes)
	if effectiveMinutes == 0 {
		return 0
	}

	movingRatio := float64(movingCount) / float64(officeCount)
	movingMinutes := theoreticalMinutes * movingRatio

	utilization := int(math.Round(movingMinutes / effectiveMinutes * 100))
	if utilization > 100 {
		utilization = 100
	}
	return utilization
}

// PastDays returns the last n calendar dates (oldest first), ending today.
func PastDays(n int, now time.Time) []string {
	dates := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		dates = append(dates, now.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	return dates
}

// DateRange expands an inclusive start/end date pair into individual dates.
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("date range: parse start %q: %w", start, err)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("date range: parse end %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("date range: end %q before start %q", end, start)
	}

	dates := []string{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}
