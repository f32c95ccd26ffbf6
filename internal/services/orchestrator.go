package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"route-history-service/internal/domain"
	"route-history-service/internal/platform/obs"
	"route-history-service/internal/ports"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidRequest marks bad caller input (empty device set, bad date).
// It is rejected synchronously and never retried.
var ErrInvalidRequest = errors.New("invalid request")

// ErrAllProvidersFailed is the only batch-level failure: every requested
// device resolved to nil.
var ErrAllProvidersFailed = errors.New("all providers failed")

const maxConcurrentFetches = 5

// RouteFetchOrchestrator coordinates per-vehicle route fetches: cache first,
// then the device's provider adapter, with per-device failures downgraded to
// nil entries so one bad device never sinks the batch.
type RouteFetchOrchestrator struct {
	registry  ports.VehicleRegistry
	cache     ports.RouteCache
	creds     ports.CredentialStore
	providers map[string]ports.RouteProvider
}

func NewRouteFetchOrchestrator(
	registry ports.VehicleRegistry,
	cache ports.RouteCache,
	creds ports.CredentialStore,
	providers map[string]ports.RouteProvider,
) *RouteFetchOrchestrator {
	return &RouteFetchOrchestrator{
		registry:  registry,
		cache:     cache,
		creds:     creds,
		providers: providers,
	}
}

// FetchMany retrieves one day of route points for every device. Devices that
// fail map to nil; the batch errors only when all of them do.
func (o *RouteFetchOrchestrator) FetchMany(
	ctx context.Context,
	deviceIDs []int,
	date string,
	forceFresh bool,
) (_ map[int][]domain.TrackPoint, err error) {
	defer obs.Time(ctx, "orchestrator.FetchMany")(&err)

	if len(deviceIDs) == 0 {
		return nil, fmt.Errorf("fetch many: empty device set: %w", ErrInvalidRequest)
	}
	if _, perr := time.Parse("2006-01-02", date); perr != nil {
		return nil, fmt.Errorf("fetch many: bad date %q: %w", date, ErrInvalidRequest)
	}

	results := make(map[int][]domain.TrackPoint, len(deviceIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, deviceID := range deviceIDs {
		g.Go(func() error {
			points, ferr := o.fetchOne(gctx, deviceID, date, forceFresh)
			if ferr != nil {
				// Partial-failure semantics: record the miss, keep going.
				log.Printf("op=fetchOne device_id=%d date=%s err=%v", deviceID, date, ferr)
				points = nil
			} else if points == nil {
				points = []domain.TrackPoint{}
			}

			mu.Lock()
			results[deviceID] = points
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	allFailed := true
	for _, points := range results {
		if points != nil {
			allFailed = false
			break
		}
	}
	if allFailed {
		return results, fmt.Errorf("fetch many: date=%s devices=%d: %w", date, len(deviceIDs), ErrAllProvidersFailed)
	}

	return results, nil
}

// fetchOne resolves a single device's points: cache unless forceFresh, then
// the provider adapter. Freshly fetched points are sorted before caching.
func (o *RouteFetchOrchestrator) fetchOne(ctx context.Context, deviceID int, date string, forceFresh bool) ([]domain.TrackPoint, error) {
	if !forceFresh {
		cached, err := o.cache.Get(ctx, deviceID, date)
		if err != nil {
			// Cache trouble degrades to always-fetch-fresh, never fails a batch.
			log.Printf("op=cache.Get device_id=%d date=%s err=%v", deviceID, date, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	vehicle, err := o.registry.VehicleByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("fetch device %d: resolve vehicle: %w", deviceID, err)
	}
	if vehicle == nil {
		return nil, fmt.Errorf("fetch device %d: unknown device", deviceID)
	}

	provider, ok := o.providers[vehicle.Provider]
	if !ok {
		return nil, fmt.Errorf("fetch device %d: no adapter for provider %q", deviceID, vehicle.Provider)
	}

	creds, err := o.creds.Get(ctx, vehicle.Provider)
	if err != nil {
		return nil, fmt.Errorf("fetch device %d: read credentials: %w", deviceID, err)
	}

	start, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("fetch device %d: parse date %q: %w", deviceID, date, err)
	}
	end := start.AddDate(0, 0, 1)

	points, err := provider.FetchRoute(ctx, deviceID, start, end, creds)
	if err != nil {
		return nil, fmt.Errorf("fetch device %d via %s: %w", deviceID, vehicle.Provider, err)
	}

	domain.SortChronological(points)

	if len(points) > 0 {
		if err := o.cache.Put(ctx, deviceID, date, points); err != nil {
			log.Printf("op=cache.Put device_id=%d date=%s err=%v", deviceID, date, err)
		}
	}

	return points, nil
}

// FetchUtilization computes per-device utilization percentages for each date,
// cache-first. A device/day that cannot be fetched scores 0.
func (o *RouteFetchOrchestrator) FetchUtilization(
	ctx context.Context,
	deviceIDs []int,
	officeHourStart, officeHourEnd int,
	dates []string,
) (_ map[string]map[int]int, err error) {
	defer obs.Time(ctx, "orchestrator.FetchUtilization")(&err)

	if len(deviceIDs) == 0 {
		return nil, fmt.Errorf("fetch utilization: empty device set: %w", ErrInvalidRequest)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("fetch utilization: empty date set: %w", ErrInvalidRequest)
	}
	if officeHourStart < 0 || officeHourEnd > 24 || officeHourStart >= officeHourEnd {
		return nil, fmt.Errorf("fetch utilization: bad office hours [%d, %d): %w", officeHourStart, officeHourEnd, ErrInvalidRequest)
	}

	results := make(map[string]map[int]int, len(dates))
	for _, date := range dates {
		results[date] = make(map[int]int, len(deviceIDs))
		for _, deviceID := range deviceIDs {
			points, ferr := o.fetchOne(ctx, deviceID, date, false)
			if ferr != nil {
				log.Printf("op=fetchOne device_id=%d date=%s err=%v", deviceID, date, ferr)
				results[date][deviceID] = 0
				continue
			}
			results[date][deviceID] = UtilizationPercent(points, officeHourStart, officeHourEnd)
		}
	}

	return results, nil
}
