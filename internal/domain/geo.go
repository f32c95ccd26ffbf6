package domain

import "math"

// Mean Earth radius in meters, used by all great-circle math in this package.
const earthRadiusMeters = 6371000.0

// Immutable geographic coordinates (latitude, longitude).
type GeoPoint struct {
	Lat float64
	Lng float64
}

// HaversineMeters returns the great-circle distance between two points in meters.
func HaversineMeters(a, b GeoPoint) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(a, b GeoPoint) float64 {
	return HaversineMeters(a, b) / 1000
}
