package domain

import (
	"fmt"
	"strings"
	"time"
)

// StopEvent is one detected stop: a maximal run of zero-speed points,
// labeled with the most meaningful location name available.
type StopEvent struct {
	DeviceID        int
	VehicleName     string
	Location        string
	Point           GeoPoint
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	// DistanceFromPreviousKm is the haversine distance to the prior kept
	// stop; nil for the first stop in a coalesced sequence.
	DistanceFromPreviousKm *float64
}

const syntheticLabelPrefix = "point #"

// SyntheticLabel builds the fallback label for a stop that matched neither a
// reference location nor a vendor address. Index is zero-based.
func SyntheticLabel(index int) string {
	return fmt.Sprintf("%s%d", syntheticLabelPrefix, index+1)
}

// IsSyntheticLabel reports whether a location string is a generated
// "point #N" placeholder rather than a real name or address.
func IsSyntheticLabel(s string) bool {
	return strings.HasPrefix(s, syntheticLabelPrefix)
}

// FormatDuration renders minutes as "HH:MM".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
