package domain

import (
	"sort"
	"time"
)

// TrackPoint is the canonical GPS sample every provider adapter must produce.
// Vendor payloads differ in field names, units and coordinate order; adapters
// translate all of that into this one shape.
type TrackPoint struct {
	Timestamp      time.Time
	Lat            float64
	Lng            float64
	SpeedKph       float64
	HeadingDeg     float64
	IgnitionOn     bool
	SatelliteCount int
	// AddressHint is the vendor-supplied reverse-geocoded address, if any.
	AddressHint string
}

// Point returns the sample's coordinates as a GeoPoint.
func (p TrackPoint) Point() GeoPoint {
	return GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

// SortChronological stable-sorts points by timestamp ascending. Vendors do
// not guarantee order, so this runs once after normalization.
func SortChronological(points []TrackPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
}
