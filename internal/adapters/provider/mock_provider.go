package provider

import (
	"context"
	"sync"
	"time"

	"route-history-service/internal/domain"
	"route-history-service/internal/ports"
)

// MockProvider serves canned point sequences keyed by device ID. Devices
// listed in Fail return a transport FetchError instead. Safe for concurrent
// fetches.
type MockProvider struct {
	ProviderName string
	Routes       map[int][]domain.TrackPoint
	Fail         map[int]error

	mu    sync.Mutex
	calls []int
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Routes:       map[int][]domain.TrackPoint{},
		Fail:         map[int]error{},
	}
}

func (m *MockProvider) Name() string { return m.ProviderName }

// Calls returns every device ID fetched so far, for cache-hit assertions.
func (m *MockProvider) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockProvider) FetchRoute(ctx context.Context, deviceID int, start, end time.Time, creds ports.Credentials) ([]domain.TrackPoint, error) {
	m.mu.Lock()
	m.calls = append(m.calls, deviceID)
	m.mu.Unlock()
	if err, ok := m.Fail[deviceID]; ok {
		return nil, &ports.FetchError{Provider: m.ProviderName, Transport: err}
	}
	return m.Routes[deviceID], nil
}

func (m *MockProvider) FetchRealtime(ctx context.Context, deviceID int, creds ports.Credentials) (*ports.RealtimeSnapshot, error) {
	if err, ok := m.Fail[deviceID]; ok {
		return nil, &ports.FetchError{Provider: m.ProviderName, Transport: err}
	}
	points := m.Routes[deviceID]
	if len(points) == 0 {
		return nil, &ports.FetchError{Provider: m.ProviderName, StatusCode: 404, VendorMessage: "no data"}
	}
	last := points[len(points)-1]
	return &ports.RealtimeSnapshot{
		DeviceID:  deviceID,
		Point:     last.Point(),
		SpeedKph:  last.SpeedKph,
		Online:    true,
		Timestamp: last.Timestamp,
	}, nil
}
