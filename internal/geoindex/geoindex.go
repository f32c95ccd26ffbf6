package geoindex

import (
	"route-history-service/internal/domain"
)

// Index answers nearest-neighbor-within-radius queries over a fixed set of
// reference locations. At the expected scale (tens of locations) a linear
// scan is enough; the contract permits swapping in a grid or k-d tree.
//
// The location set is immutable after construction, so an Index is safe for
// concurrent readers.
type Index struct {
	locations []domain.NamedLocation
	byName    map[string]struct{}
}

func New(locations []domain.NamedLocation) *Index {
	byName := make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		byName[loc.Name] = struct{}{}
	}

	return &Index{locations: locations, byName: byName}
}

// Nearest returns the reference location closest to point, provided it lies
// strictly within maxRadiusMeters. Absence of a match is a valid non-error
// result. Ties resolve to the first location in iteration order.
func (ix *Index) Nearest(point domain.GeoPoint, maxRadiusMeters float64) *domain.NamedLocation {
	var closest *domain.NamedLocation
	minDistance := maxRadiusMeters

	for i := range ix.locations {
		d := domain.HaversineMeters(point, ix.locations[i].Point)
		if d < minDistance {
			minDistance = d
			closest = &ix.locations[i]
		}
	}

	return closest
}

// HasName reports whether name matches a known reference location.
func (ix *Index) HasName(name string) bool {
	_, ok := ix.byName[name]
	return ok
}

// Len returns the number of indexed locations.
func (ix *Index) Len() int { return len(ix.locations) }
