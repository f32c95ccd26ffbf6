package dto

import "time"

type RouteHistoryRequest struct {
	DeviceIDs  []int  `json:"device_ids"`
	Date       string `json:"date"`
	ForceFresh bool   `json:"force_fresh"`
}

type TrackPointResponse struct {
	Timestamp   time.Time `json:"timestamp"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	SpeedKph    float64   `json:"speed_kph"`
	HeadingDeg  float64   `json:"heading_deg"`
	IgnitionOn  bool      `json:"ignition_on"`
	Satellites  int       `json:"satellites"`
	AddressHint string    `json:"address_hint,omitempty"`
}

// RouteHistoryResponse maps device ID to its points; a device whose fetch
// failed maps to null.
type RouteHistoryResponse struct {
	Date   string                       `json:"date"`
	Routes map[int][]TrackPointResponse `json:"routes"`
}

type StopsRequest struct {
	DeviceIDs          []int   `json:"device_ids"`
	Date               string  `json:"date"`
	ForceFresh         bool    `json:"force_fresh"`
	RadiusMeters       float64 `json:"radius_meters"`
	MinDurationMinutes int     `json:"min_duration_minutes"`
}

type StopResponse struct {
	DeviceID               int       `json:"device_id"`
	VehicleName            string    `json:"vehicle_name"`
	Location               string    `json:"location"`
	Lat                    float64   `json:"lat"`
	Lng                    float64   `json:"lng"`
	StartTime              time.Time `json:"start_time"`
	EndTime                time.Time `json:"end_time"`
	DurationMinutes        int       `json:"duration_minutes"`
	DurationFormatted      string    `json:"duration_formatted"`
	DistanceFromPreviousKm *float64  `json:"distance_from_previous_km,omitempty"`
}

type StopsResponse struct {
	Date  string                 `json:"date"`
	Stops map[int][]StopResponse `json:"stops"`
}

type UtilizationRequest struct {
	DeviceIDs       []int  `json:"device_ids"`
	OfficeHourStart int    `json:"office_hour_start"`
	OfficeHourEnd   int    `json:"office_hour_end"`
	Days            int    `json:"days"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
}

// UtilizationResponse maps date -> device ID -> whole percentage.
type UtilizationResponse struct {
	Utilization map[string]map[int]int `json:"utilization"`
}

type CacheStatsResponse struct {
	Count                int        `json:"count"`
	ApproximateSizeBytes int        `json:"approximate_size_bytes"`
	OldestFetchedAt      *time.Time `json:"oldest_fetched_at,omitempty"`
	NewestFetchedAt      *time.Time `json:"newest_fetched_at,omitempty"`
}

type ClearExpiredResponse struct {
	Evicted int `json:"evicted"`
}
