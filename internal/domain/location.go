package domain

// LocationKind classifies a reference location.
type LocationKind string

const (
	LocationOffice   LocationKind = "office"
	LocationPickup   LocationKind = "pickup"
	LocationDelivery LocationKind = "delivery"
	LocationService  LocationKind = "service"
)

// NamedLocation is a known reference site (office, rice mill, farm, garage).
// The set is loaded once per session and is read-only to the analysis core.
type NamedLocation struct {
	Name  string
	Point GeoPoint
	Kind  LocationKind
}
