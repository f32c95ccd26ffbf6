package services

import (
	"math"
	"route-history-service/internal/domain"
	"route-history-service/internal/geoindex"
)

// StopAnalyzer turns a canonical point sequence into a labeled, duration-
// annotated list of stop events. It consults the reference-location index
// for labels but never mutates it.
type StopAnalyzer struct {
	index *geoindex.Index
}

func NewStopAnalyzer(index *geoindex.Index) *StopAnalyzer {
	return &StopAnalyzer{index: index}
}

// labelFor resolves a human-meaningful label for a stopped point. Fallback
// order: nearest reference location within radius, then the vendor address
// hint, then a synthesized "point #N" placeholder.
func (a *StopAnalyzer) labelFor(p domain.TrackPoint, index int, radiusMeters float64) string {
	if loc := a.index.Nearest(p.Point(), radiusMeters); loc != nil {
		return loc.Name
	}
	if p.AddressHint != "" {
		return p.AddressHint
	}
	return domain.SyntheticLabel(index)
}

// labelRank orders location labels for the coalesce upgrade rule: a known
// reference-location name beats a vendor address beats a synthetic label.
func (a *StopAnalyzer) labelRank(label string) int {
	switch {
	case a.index.HasName(label):
		return 2
	case label != "" && !domain.IsSyntheticLabel(label):
		return 1
	default:
		return 0
	}
}

// Analyze walks the time-ordered sequence and emits one StopEvent per maximal
// run of zero-speed points. An empty or nil input yields an empty result.
func (a *StopAnalyzer) Analyze(points []domain.TrackPoint, radiusMeters float64, deviceID int, vehicleName string) []domain.StopEvent {
	if len(points) == 0 {
		return []domain.StopEvent{}
	}

	// Callers are expected to hand over sorted points, but sorting is cheap
	// at this scale and the state machine depends on it.
	sorted := make([]domain.TrackPoint, len(points))
	copy(sorted, points)
	domain.SortChronological(sorted)

	stops := []domain.StopEvent{}
	var current *domain.StopEvent

	for i, p := range sorted {
		if p.SpeedKph == 0 {
			if current == nil {
				current = &domain.StopEvent{
					DeviceID:    deviceID,
					VehicleName: vehicleName,
					Location:    a.labelFor(p, i, radiusMeters),
					Point:       p.Point(),
					StartTime:   p.Timestamp,
					EndTime:     p.Timestamp,
				}
			} else {
				current.EndTime = p.Timestamp
			}
			continue
		}

		if current != nil {
			stops = append(stops, closeStop(*current))
			current = nil
		}
	}

	// Sequence ended while still stopped.
	if current != nil {
		stops = append(stops, closeStop(*current))
	}

	return stops
}

func closeStop(s domain.StopEvent) domain.StopEvent {
	s.DurationMinutes = int(math.Round(s.EndTime.Sub(s.StartTime).Minutes()))
	return s
}

// Coalesce drops stops shorter than minDurationMinutes, then merges each
// remaining stop into its kept predecessor when both belong to the same
// device and either share a location label or lie within radiusMeters of
// each other. Merging extends the end time, sums durations, and only
// upgrades the label when the incoming one ranks strictly higher.
func (a *StopAnalyzer) Coalesce(stops []domain.StopEvent, minDurationMinutes int, radiusMeters float64) []domain.StopEvent {
	kept := []domain.StopEvent{}

	for _, stop := range stops {
		if stop.DurationMinutes < minDurationMinutes {
			continue
		}

		if len(kept) > 0 {
			prev := &kept[len(kept)-1]
			sameVisit := prev.DeviceID == stop.DeviceID &&
				(prev.Location == stop.Location ||
					domain.HaversineMeters(prev.Point, stop.Point) <= radiusMeters)

			if sameVisit {
				prev.EndTime = stop.EndTime
				prev.DurationMinutes += stop.DurationMinutes
				if a.labelRank(stop.Location) > a.labelRank(prev.Location) {
					prev.Location = stop.Location
				}
				continue
			}
		}

		next := stop
		next.DistanceFromPreviousKm = nil
		if len(kept) > 0 {
			prev := kept[len(kept)-1]
			km := domain.HaversineKm(prev.Point, next.Point)
			next.DistanceFromPreviousKm = &km
		}
		kept = append(kept, next)
	}

	return kept
}
