package ports

import (
	"context"
	"fmt"
	"route-history-service/internal/domain"
	"time"
)

// Credentials carries the auth material one provider call needs. Field usage
// is vendor specific: Andaman sends both headers raw, Siam GPS sends only
// Authorization with a Bearer prefix.
type Credentials struct {
	Authorization string
	Token         string
}

// RealtimeSnapshot is the latest known state of one vehicle.
type RealtimeSnapshot struct {
	DeviceID   int
	Name       string
	Point      domain.GeoPoint
	SpeedKph   float64
	Online     bool
	IgnitionOn bool
	Timestamp  time.Time
	Address    string
}

// RouteProvider is implemented once per GPS vendor. Each implementation owns
// its wire request shape, auth header convention, and response-to-canonical
// mapping; no transformation code is shared between vendors.
type RouteProvider interface {
	// Name returns the registry key ("andaman", "siamgps").
	Name() string
	// FetchRoute returns the canonical points for one device over [start, end).
	// Ordering is not guaranteed; callers sort.
	FetchRoute(ctx context.Context, deviceID int, start, end time.Time, creds Credentials) ([]domain.TrackPoint, error)
	// FetchRealtime returns the device's latest position.
	FetchRealtime(ctx context.Context, deviceID int, creds Credentials) (*RealtimeSnapshot, error)
}

// FetchError is the sole failure type a provider adapter surfaces. Exactly
// one of the three cause fields is populated.
type FetchError struct {
	Provider string
	// StatusCode and VendorMessage describe a non-success HTTP response.
	StatusCode    int
	VendorMessage string
	// Transport is a network-level failure (includes timeouts).
	Transport error
	// Parse is a malformed or unexpected payload shape.
	Parse error
}

func (e *FetchError) Error() string {
	switch {
	case e.Transport != nil:
		return fmt.Sprintf("%s: transport: %v", e.Provider, e.Transport)
	case e.Parse != nil:
		return fmt.Sprintf("%s: parse response: %v", e.Provider, e.Parse)
	default:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.VendorMessage)
	}
}

func (e *FetchError) Unwrap() error {
	if e.Transport != nil {
		return e.Transport
	}
	return e.Parse
}
