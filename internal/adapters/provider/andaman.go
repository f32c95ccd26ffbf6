package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"route-history-service/internal/domain"
	"route-history-service/internal/ports"
)

const andamanName = "andaman"

// AndamanProvider speaks the Andaman Tracking API: POST with epoch-millis
// date bounds for route history, GET for the realtime fleet list. Auth is two
// raw custom headers, Authorization and Token, sent as-is.
//
// The adapter is stateless aside from the injected HTTP client; credentials
// arrive per call.
type AndamanProvider struct {
	client  *http.Client
	baseURL string
}

func NewAndamanProvider() *AndamanProvider {
	return &AndamanProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://apitracking.andamantracking.dev/web/v1",
	}
}

// NewAndamanProviderWithBaseURL is used by tests to point at a stub server.
func NewAndamanProviderWithBaseURL(baseURL string) *AndamanProvider {
	p := NewAndamanProvider()
	p.baseURL = baseURL
	return p
}

func (p *AndamanProvider) Name() string { return andamanName }

type andamanRouteRequest struct {
	DeviceID int   `json:"deviceId"`
	Start    int64 `json:"start"`
	End      int64 `json:"end"`
}

type andamanPoint struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Speed      float64 `json:"speed"`
	EventStamp string  `json:"event_stamp"`
	Direction  float64 `json:"direction"`
	Ignition   int     `json:"ignition"`
	Satellites int     `json:"satellites"`
	Address    string  `json:"address"`
}

type andamanRouteResponse struct {
	List []andamanPoint `json:"list"`
}

type andamanVehicle struct {
	DeviceID   int     `json:"device_id"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Speed      float64 `json:"speed"`
	StatusName string  `json:"status_name"`
	Online     int     `json:"online"`
	EventStamp string  `json:"event_stamp"`
	Address    string  `json:"address"`
	Ignition   int     `json:"ignition"`
	Satellites int     `json:"satellites"`
}

// parseAndamanStamp handles the vendor's two observed timestamp encodings.
func parseAndamanStamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse event_stamp %q: %w", s, err)
	}
	return t, nil
}

func (p *AndamanProvider) FetchRoute(ctx context.Context, deviceID int, start, end time.Time, creds ports.Credentials) ([]domain.TrackPoint, error) {
	payload, err := json.Marshal(andamanRouteRequest{
		DeviceID: deviceID,
		Start:    start.UnixMilli(),
		End:      end.UnixMilli(),
	})
	if err != nil {
		return nil, &ports.FetchError{Provider: andamanName, Parse: err}
	}

	endpoint := p.baseURL + "/passroute"
	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", creds.Authorization)
		req.Header.Set("Token", creds.Token)
		return req, nil
	})
	if err != nil {
		return nil, fetchError(andamanName, err)
	}
	defer resp.Body.Close()

	var decoded andamanRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &ports.FetchError{Provider: andamanName, Parse: err}
	}

	points := make([]domain.TrackPoint, 0, len(decoded.List))
	for _, raw := range decoded.List {
		ts, err := parseAndamanStamp(raw.EventStamp)
		if err != nil {
			return nil, &ports.FetchError{Provider: andamanName, Parse: err}
		}
		points = append(points, domain.TrackPoint{
			Timestamp:      ts,
			Lat:            raw.Latitude,
			Lng:            raw.Longitude,
			SpeedKph:       raw.Speed,
			HeadingDeg:     raw.Direction,
			IgnitionOn:     raw.Ignition == 1,
			SatelliteCount: raw.Satellites,
			AddressHint:    raw.Address,
		})
	}

	return points, nil
}

// FetchRealtime downloads the whole fleet list and picks out one device;
// the vendor offers no per-device realtime endpoint.
func (p *AndamanProvider) FetchRealtime(ctx context.Context, deviceID int, creds ports.Credentials) (*ports.RealtimeSnapshot, error) {
	endpoint := p.baseURL + "/home"
	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", creds.Authorization)
		req.Header.Set("Token", creds.Token)
		return req, nil
	})
	if err != nil {
		return nil, fetchError(andamanName, err)
	}
	defer resp.Body.Close()

	var fleet []andamanVehicle
	if err := json.NewDecoder(resp.Body).Decode(&fleet); err != nil {
		return nil, &ports.FetchError{Provider: andamanName, Parse: err}
	}

	for _, v := range fleet {
		if v.DeviceID != deviceID {
			continue
		}
		ts, err := parseAndamanStamp(v.EventStamp)
		if err != nil {
			return nil, &ports.FetchError{Provider: andamanName, Parse: err}
		}
		return &ports.RealtimeSnapshot{
			DeviceID:   v.DeviceID,
			Name:       v.Name,
			Point:      domain.GeoPoint{Lat: v.Latitude, Lng: v.Longitude},
			SpeedKph:   v.Speed,
			Online:     v.Online == 1,
			IgnitionOn: v.Ignition == 1,
			Timestamp:  ts,
			Address:    v.Address,
		}, nil
	}

	return nil, &ports.FetchError{
		Provider: andamanName,
		Parse:    fmt.Errorf("device %d not present in fleet response", deviceID),
	}
}
