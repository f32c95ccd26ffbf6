package services

import (
	"reflect"
	"testing"
	"time"

	"route-history-service/internal/domain"
	"route-history-service/internal/geoindex"
)

var farmPoint = domain.GeoPoint{Lat: 7.729165, Lng: 99.956551}

func testIndex() *geoindex.Index {
	return geoindex.New([]domain.NamedLocation{
		{Name: "office", Point: domain.GeoPoint{Lat: 7.70496, Lng: 100.00464}, Kind: domain.LocationOffice},
		{Name: "laong farm", Point: farmPoint, Kind: domain.LocationDelivery},
	})
}

func at(minute int) time.Time {
	return time.Date(2025, 1, 15, 9, minute, 0, 0, time.UTC)
}

func moving(minute int, lat, lng float64) domain.TrackPoint {
	return domain.TrackPoint{Timestamp: at(minute), Lat: lat, Lng: lng, SpeedKph: 45}
}

func stopped(minute int, lat, lng float64) domain.TrackPoint {
	return domain.TrackPoint{Timestamp: at(minute), Lat: lat, Lng: lng}
}

func TestAnalyzeSingleStopAtKnownLocation(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	// Two zero-speed points spanning 6 minutes at the farm, three moving
	// elsewhere.
	points := []domain.TrackPoint{
		moving(0, 7.71, 100.0),
		stopped(2, farmPoint.Lat, farmPoint.Lng),
		stopped(8, farmPoint.Lat, farmPoint.Lng),
		moving(10, 7.74, 99.96),
		moving(12, 7.75, 99.97),
	}

	stops := analyzer.Analyze(points, 200, 46397, "pickup truck")
	if len(stops) != 1 {
		t.Fatalf("expected 1 stop, got %d", len(stops))
	}

	stop := stops[0]
	if stop.DurationMinutes != 6 {
		t.Errorf("duration = %d, want 6", stop.DurationMinutes)
	}
	if stop.Location != "laong farm" {
		t.Errorf("location = %q, want %q", stop.Location, "laong farm")
	}
	if stop.DeviceID != 46397 || stop.VehicleName != "pickup truck" {
		t.Errorf("device metadata not carried: %+v", stop)
	}

	kept := analyzer.Coalesce(stops, 5, 200)
	if len(kept) != 1 {
		t.Fatalf("coalesce dropped a stop at the minimum-duration boundary")
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	if got := analyzer.Analyze(nil, 200, 1, ""); len(got) != 0 {
		t.Fatalf("expected empty result for nil input, got %d stops", len(got))
	}
	if got := analyzer.Analyze([]domain.TrackPoint{}, 200, 1, ""); len(got) != 0 {
		t.Fatalf("expected empty result for empty input, got %d stops", len(got))
	}
}

func TestAnalyzeEndsWhileStopped(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	points := []domain.TrackPoint{
		moving(0, 7.71, 100.0),
		stopped(5, 7.9, 100.5),
		stopped(9, 7.9, 100.5),
	}

	stops := analyzer.Analyze(points, 200, 1, "")
	if len(stops) != 1 {
		t.Fatalf("expected the open stop to be emitted, got %d stops", len(stops))
	}
	if stops[0].DurationMinutes != 4 {
		t.Errorf("duration = %d, want 4", stops[0].DurationMinutes)
	}
}

func TestAnalyzeSortsUnorderedInput(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	// Same stop as the happy path but delivered out of order by the vendor.
	points := []domain.TrackPoint{
		stopped(8, farmPoint.Lat, farmPoint.Lng),
		moving(12, 7.75, 99.97),
		moving(0, 7.71, 100.0),
		stopped(2, farmPoint.Lat, farmPoint.Lng),
		moving(10, 7.74, 99.96),
	}

	stops := analyzer.Analyze(points, 200, 1, "")
	if len(stops) != 1 {
		t.Fatalf("expected 1 stop, got %d", len(stops))
	}
	if stops[0].DurationMinutes != 6 {
		t.Errorf("duration = %d, want 6", stops[0].DurationMinutes)
	}
}

func TestAnalyzeNeverInvertsTimes(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	points := []domain.TrackPoint{
		stopped(3, 7.9, 100.1),
		moving(4, 7.91, 100.11),
		stopped(5, 7.92, 100.12),
		stopped(6, 7.92, 100.12),
		moving(9, 7.95, 100.2),
		stopped(11, 7.96, 100.21),
	}

	for _, stop := range analyzer.Analyze(points, 200, 1, "") {
		if stop.EndTime.Before(stop.StartTime) {
			t.Errorf("stop %q has end %v before start %v", stop.Location, stop.EndTime, stop.StartTime)
		}
	}
}

func TestAnalyzeLabelFallback(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	// Far from every reference location, with a vendor address hint.
	withHint := []domain.TrackPoint{
		{Timestamp: at(0), Lat: 8.5, Lng: 101.0, AddressHint: "Phatthalung bypass"},
		moving(3, 8.51, 101.01),
	}
	stops := analyzer.Analyze(withHint, 200, 1, "")
	if len(stops) != 1 || stops[0].Location != "Phatthalung bypass" {
		t.Fatalf("expected vendor address label, got %+v", stops)
	}

	// No hint either: synthesized placeholder carrying the point index.
	bare := []domain.TrackPoint{
		moving(0, 8.5, 101.0),
		{Timestamp: at(2), Lat: 8.5, Lng: 101.0},
		moving(4, 8.51, 101.01),
	}
	stops = analyzer.Analyze(bare, 200, 1, "")
	if len(stops) != 1 || stops[0].Location != "point #2" {
		t.Fatalf("expected synthesized label point #2, got %+v", stops)
	}
}

func TestCoalesceDurationBoundary(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	stops := []domain.StopEvent{
		{DeviceID: 1, Location: "a", Point: domain.GeoPoint{Lat: 7.1, Lng: 100.1}, StartTime: at(0), EndTime: at(5), DurationMinutes: 5},
		{DeviceID: 1, Location: "b", Point: domain.GeoPoint{Lat: 7.5, Lng: 100.5}, StartTime: at(10), EndTime: at(14), DurationMinutes: 4},
	}

	kept := analyzer.Coalesce(stops, 5, 200)
	if len(kept) != 1 {
		t.Fatalf("expected exactly the 5-minute stop kept, got %d", len(kept))
	}
	if kept[0].Location != "a" {
		t.Errorf("kept %q, want %q", kept[0].Location, "a")
	}
}

func TestCoalesceMergesSameVisit(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	stops := []domain.StopEvent{
		{DeviceID: 1, Location: "laong farm", Point: farmPoint, StartTime: at(0), EndTime: at(10), DurationMinutes: 10},
		// Same label: merged regardless of distance.
		{DeviceID: 1, Location: "laong farm", Point: farmPoint, StartTime: at(15), EndTime: at(22), DurationMinutes: 7},
		// Different label but within radius: still one visit.
		{DeviceID: 1, Location: "driveway", Point: domain.GeoPoint{Lat: farmPoint.Lat + 0.0005, Lng: farmPoint.Lng}, StartTime: at(25), EndTime: at(31), DurationMinutes: 6},
		// Far away: a separate visit.
		{DeviceID: 1, Location: "town", Point: domain.GeoPoint{Lat: 7.61, Lng: 100.08}, StartTime: at(40), EndTime: at(48), DurationMinutes: 8},
	}

	kept := analyzer.Coalesce(stops, 5, 200)
	if len(kept) != 2 {
		t.Fatalf("expected 2 coalesced visits, got %d", len(kept))
	}

	first := kept[0]
	if first.DurationMinutes != 23 {
		t.Errorf("merged duration = %d, want 23", first.DurationMinutes)
	}
	if !first.EndTime.Equal(at(31)) {
		t.Errorf("merged end = %v, want %v", first.EndTime, at(31))
	}
	// The known reference name outranks the incoming plain address.
	if first.Location != "laong farm" {
		t.Errorf("merged label = %q, want %q", first.Location, "laong farm")
	}

	second := kept[1]
	if second.DistanceFromPreviousKm == nil {
		t.Fatal("second visit missing distance from previous")
	}
	if *second.DistanceFromPreviousKm <= 0 {
		t.Errorf("distance from previous = %f, want > 0", *second.DistanceFromPreviousKm)
	}
	if first.DistanceFromPreviousKm != nil {
		t.Error("first visit should have no distance from previous")
	}
}

func TestCoalesceLabelUpgrade(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	stops := []domain.StopEvent{
		{DeviceID: 1, Location: "point #4", Point: farmPoint, StartTime: at(0), EndTime: at(6), DurationMinutes: 6},
		{DeviceID: 1, Location: "roadside address", Point: farmPoint, StartTime: at(8), EndTime: at(14), DurationMinutes: 6},
		{DeviceID: 1, Location: "laong farm", Point: farmPoint, StartTime: at(16), EndTime: at(22), DurationMinutes: 6},
	}

	kept := analyzer.Coalesce(stops, 5, 200)
	if len(kept) != 1 {
		t.Fatalf("expected 1 merged visit, got %d", len(kept))
	}
	// Each incoming label ranked strictly higher than the held one.
	if kept[0].Location != "laong farm" {
		t.Errorf("label = %q, want %q", kept[0].Location, "laong farm")
	}

	// Reversed ranks: the known name must never be downgraded.
	reversed := []domain.StopEvent{
		{DeviceID: 1, Location: "laong farm", Point: farmPoint, StartTime: at(0), EndTime: at(6), DurationMinutes: 6},
		{DeviceID: 1, Location: "roadside address", Point: farmPoint, StartTime: at(8), EndTime: at(14), DurationMinutes: 6},
	}
	kept = analyzer.Coalesce(reversed, 5, 200)
	if len(kept) != 1 || kept[0].Location != "laong farm" {
		t.Fatalf("known label was downgraded: %+v", kept)
	}
}

func TestCoalesceDifferentDevicesNeverMerge(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	stops := []domain.StopEvent{
		{DeviceID: 1, Location: "laong farm", Point: farmPoint, StartTime: at(0), EndTime: at(6), DurationMinutes: 6},
		{DeviceID: 2, Location: "laong farm", Point: farmPoint, StartTime: at(8), EndTime: at(14), DurationMinutes: 6},
	}

	if kept := analyzer.Coalesce(stops, 5, 200); len(kept) != 2 {
		t.Fatalf("stops from different devices merged: %+v", kept)
	}
}

func TestCoalesceIdempotent(t *testing.T) {
	analyzer := NewStopAnalyzer(testIndex())

	stops := []domain.StopEvent{
		{DeviceID: 1, Location: "laong farm", Point: farmPoint, StartTime: at(0), EndTime: at(10), DurationMinutes: 10},
		{DeviceID: 1, Location: "laong farm", Point: farmPoint, StartTime: at(12), EndTime: at(20), DurationMinutes: 8},
		{DeviceID: 1, Location: "town", Point: domain.GeoPoint{Lat: 7.61, Lng: 100.08}, StartTime: at(30), EndTime: at(33), DurationMinutes: 3},
		{DeviceID: 1, Location: "office", Point: domain.GeoPoint{Lat: 7.70496, Lng: 100.00464}, StartTime: at(40), EndTime: at(52), DurationMinutes: 12},
	}

	once := analyzer.Coalesce(stops, 5, 200)
	twice := analyzer.Coalesce(once, 5, 200)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("coalesce not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}
