package ports

import (
	"context"
	"route-history-service/internal/domain"
)

// VehicleRegistry resolves which provider and display name apply to a GPS
// device ID. The host refreshes it before a batch; the core only reads.
type VehicleRegistry interface {
	ListVehicles(ctx context.Context) ([]*domain.Vehicle, error)
	// VehicleByDeviceID returns nil when the device is unknown.
	VehicleByDeviceID(ctx context.Context, deviceID int) (*domain.Vehicle, error)
}

// LocationSource supplies the reference-location set, loaded once per session.
type LocationSource interface {
	ListLocations(ctx context.Context) ([]domain.NamedLocation, error)
}

// CredentialStore is a key-value read for provider API tokens, read at call
// time. A missing provider yields zero-value Credentials, not an error.
type CredentialStore interface {
	Get(ctx context.Context, providerName string) (Credentials, error)
}
