package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"route-history-service/internal/adapters/cache"
	"route-history-service/internal/adapters/provider"
	"route-history-service/internal/domain"
	"route-history-service/internal/ports"
)

type stubRegistry struct {
	vehicles map[int]*domain.Vehicle
}

func (r *stubRegistry) ListVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	out := make([]*domain.Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		out = append(out, v)
	}
	return out, nil
}

func (r *stubRegistry) VehicleByDeviceID(ctx context.Context, deviceID int) (*domain.Vehicle, error) {
	return r.vehicles[deviceID], nil
}

type stubCredentials struct{}

func (stubCredentials) Get(ctx context.Context, providerName string) (ports.Credentials, error) {
	return ports.Credentials{Authorization: "test-auth"}, nil
}

func trackPoints(n int, speed float64) []domain.TrackPoint {
	base := time.Date(2025, 1, 15, 9, 0, 0, 0, time.Local)
	points := make([]domain.TrackPoint, n)
	for i := range points {
		points[i] = domain.TrackPoint{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Lat:       7.7 + float64(i)*0.001,
			Lng:       100.0,
			SpeedKph:  speed,
		}
	}
	return points
}

func newTestOrchestrator(registry *stubRegistry, mock *provider.MockProvider) (*RouteFetchOrchestrator, *cache.MemoryRouteCache) {
	routeCache := cache.NewMemoryRouteCache()
	orch := NewRouteFetchOrchestrator(registry, routeCache, stubCredentials{}, map[string]ports.RouteProvider{
		mock.Name(): mock,
	})
	return orch, routeCache
}

func TestFetchManyRejectsInvalidInput(t *testing.T) {
	mock := provider.NewMockProvider("andaman")
	orch, _ := newTestOrchestrator(&stubRegistry{vehicles: map[int]*domain.Vehicle{}}, mock)

	if _, err := orch.FetchMany(context.Background(), nil, "2025-01-15", false); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("empty device set: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := orch.FetchMany(context.Background(), []int{1}, "15/01/2025", false); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("bad date: err = %v, want ErrInvalidRequest", err)
	}
	if len(mock.Calls()) != 0 {
		t.Errorf("invalid requests reached the provider: %v", mock.Calls())
	}
}

func TestFetchManyPartialFailure(t *testing.T) {
	mock := provider.NewMockProvider("andaman")
	mock.Routes[1] = trackPoints(5, 40)
	mock.Routes[2] = []domain.TrackPoint{}
	mock.Fail[3] = errors.New("connection refused")

	registry := &stubRegistry{vehicles: map[int]*domain.Vehicle{
		1: {ID: 1, GPSDeviceID: 1, Provider: "andaman"},
		2: {ID: 2, GPSDeviceID: 2, Provider: "andaman"},
		3: {ID: 3, GPSDeviceID: 3, Provider: "andaman"},
	}}
	orch, _ := newTestOrchestrator(registry, mock)

	results, err := orch.FetchMany(context.Background(), []int{1, 2, 3}, "2025-01-15", false)
	if err != nil {
		t.Fatalf("partial failure must not error the batch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected an entry per requested device, got %d", len(results))
	}
	if len(results[1]) != 5 {
		t.Errorf("device 1: got %d points, want 5", len(results[1]))
	}
	if results[2] == nil || len(results[2]) != 0 {
		t.Errorf("device 2: want non-nil empty slice, got %v", results[2])
	}
	if results[3] != nil {
		t.Errorf("device 3: failed fetch must map to nil, got %v", results[3])
	}
}

func TestFetchManyAllFailed(t *testing.T) {
	mock := provider.NewMockProvider("andaman")
	mock.Fail[1] = errors.New("timeout")
	mock.Fail[2] = errors.New("timeout")

	registry := &stubRegistry{vehicles: map[int]*domain.Vehicle{
		1: {ID: 1, GPSDeviceID: 1, Provider: "andaman"},
		2: {ID: 2, GPSDeviceID: 2, Provider: "andaman"},
	}}
	orch, _ := newTestOrchestrator(registry, mock)

	results, err := orch.FetchMany(context.Background(), []int{1, 2}, "2025-01-15", false)
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("err = %v, want ErrAllProvidersFailed", err)
	}
	for id, points := range results {
		if points != nil {
			t.Errorf("device %d: want nil, got %v", id, points)
		}
	}
}

func TestFetchManyUnknownDeviceMapsToNil(t *testing.T) {
	mock := provider.NewMockProvider("andaman")
	mock.Routes[1] = trackPoints(2, 30)

	registry := &stubRegistry{vehicles: map[int]*domain.Vehicle{
		1: {ID: 1, GPSDeviceID: 1, Provider: "andaman"},
	}}
	orch, _ := newTestOrchestrator(registry, mock)

	results, err := orch.FetchMany(context.Background(), []int{1, 99}, "2025-01-15", false)
	if err != nil {
		t.Fatalf("FetchMany: %v", err)
	}
	if results[99] != nil {
		t.Errorf("unknown device: want nil, got %v", results[99])
	}
	if len(results[1]) != 2 {
		t.Errorf("known device starved by unknown sibling: %v", results[1])
	}
}

func TestFetchManyCacheHitSkipsProvider(t *testing.T) {
	mock := provider.NewMockProvider("andaman")
	mock.Routes[1] = trackPoints(4, 40)

	registry := &stubRegistry{vehicles: map[int]*domain.Vehicle{
		1: {ID: 1, GPSDeviceID: 1, Provider: "andaman"},
	}}
	orch, _ := newTestOrchestrator(registry, mock)

	if _, err := orch.FetchMany(context.Background(), []int{1}, "2025-01-15", false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if got := len(mock.Calls()); got != 1 {
		t.Fatalf("first fetch: %d provider calls, want 1", got)
	}

	results, err := orch.FetchMany(context.Background(), []int{1}, "2025-01-15", false)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if got := len(mock.Calls()); got != 1 {
		t.Errorf("cache hit still reached the provider: %d calls", got)
	}
	if len(results[1]) != 4 {
		t.Errorf("cached result: got %d points, want 4", len(results[1]))
	}
}

func TestFetchManyForceFreshBypassesCache(t *testing.T) {
	mock := provider.NewMockProvider("andaman")
	mock.Routes[1] = trackPoints(4, 40)

	registry := &stubRegistry{vehicles: map[int]*domain.Vehicle{
		1: {ID: 1, GPSDeviceID: 1, Provider: "andaman"},
	}}
	orch, _ := newTestOrchestrator(registry, mock)

	if _, err := orch.FetchMany(context.Background(), []int{1}, "2025-01-15", false); err != nil {
		t.Fatalf("warm fetch: %v", err)
	}
	if _, err := orch.FetchMany(context.Background(), []int{1}, "2025-01-15", true); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}
	if got := len(mock.Calls()); got != 2 {
		t.Errorf("force_fresh did not bypass cache: %d provider calls, want 2", got)
	}
}

func TestFetchManySortsProviderOutput(t *testing.T) {
	unsorted := trackPoints(3, 40)
	unsorted[0], unsorted[2] = unsorted[2], unsorted[0]

	mock := provider.NewMockProvider("andaman")
	mock.Routes[1] = unsorted

	registry := &stubRegistry{vehicles: map[int]*domain.Vehicle{
		1: {ID: 1, GPSDeviceID: 1, Provider: "andaman"},
	}}
	orch, _ := newTestOrchestrator(registry, mock)

	results, err := orch.FetchMany(context.Background(), []int{1}, "2025-01-15", false)
	if err != nil {
		t.Fatalf("FetchMany: %v", err)
	}
	points := results[1]
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp.Before(points[i-1].Timestamp) {
			t.Fatalf("points not chronological at index %d", i)
		}
	}
}

func TestFetchUtilization(t *testing.T) {
	mock := provider.NewMockProvider("andaman")
	mock.Routes[1] = trackPoints(10, 40) // all moving inside office hours
	mock.Fail[2] = errors.New("unreachable")

	registry := &stubRegistry{vehicles: map[int]*domain.Vehicle{
		1: {ID: 1, GPSDeviceID: 1, Provider: "andaman"},
		2: {ID: 2, GPSDeviceID: 2, Provider: "andaman"},
	}}
	orch, _ := newTestOrchestrator(registry, mock)

	results, err := orch.FetchUtilization(context.Background(), []int{1, 2}, 8, 17, []string{"2025-01-15"})
	if err != nil {
		t.Fatalf("FetchUtilization: %v", err)
	}

	day := results["2025-01-15"]
	if day == nil {
		t.Fatal("missing requested date in results")
	}
	if day[1] != 100 {
		t.Errorf("device 1 utilization = %d, want 100", day[1])
	}
	if day[2] != 0 {
		t.Errorf("failed device utilization = %d, want 0", day[2])
	}
}

func TestFetchUtilizationRejectsBadWindow(t *testing.T) {
	mock := provider.NewMockProvider("andaman")
	orch, _ := newTestOrchestrator(&stubRegistry{vehicles: map[int]*domain.Vehicle{}}, mock)

	cases := []struct{ start, end int }{
		{-1, 17},
		{8, 25},
		{17, 8},
		{9, 9},
	}
	for _, c := range cases {
		if _, err := orch.FetchUtilization(context.Background(), []int{1}, c.start, c.end, []string{"2025-01-15"}); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("window [%d, %d): err = %v, want ErrInvalidRequest", c.start, c.end, err)
		}
	}
}
