package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"route-history-service/internal/domain"
	"route-history-service/internal/ports"
)

const siamGPSName = "siamgps"

// SiamGPSProvider speaks the Siam GPS Track API: GET with query parameters
// and a Bearer-prefixed Authorization header. Coordinates arrive GeoJSON
// style as [lng, lat] pairs; ignition state is encoded as the string
// vehicleStatus "RUNNING".
type SiamGPSProvider struct {
	client  *http.Client
	baseURL string
}

func NewSiamGPSProvider() *SiamGPSProvider {
	return &SiamGPSProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://services.siamgpstrack.com",
	}
}

// NewSiamGPSProviderWithBaseURL is used by tests to point at a stub server.
func NewSiamGPSProviderWithBaseURL(baseURL string) *SiamGPSProvider {
	p := NewSiamGPSProvider()
	p.baseURL = baseURL
	return p
}

func (p *SiamGPSProvider) Name() string { return siamGPSName }

// bearer normalizes the stored token: the vendor requires the prefix but
// operators paste raw tokens.
func bearer(token string) string {
	if token == "" || strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}

type siamGeoLocation struct {
	SGeO string `json:"sGeO"`
}

type siamCoordinates struct {
	Coordinates []float64 `json:"coordinates"`
}

type siamPlaybackPoint struct {
	Location      *siamCoordinates `json:"location"`
	Speed         float64          `json:"speed"`
	Time          string           `json:"time"`
	Heading       float64          `json:"heading"`
	VehicleStatus string           `json:"vehicleStatus"`
	GPSFix        bool             `json:"gpsFix"`
	GeoLocation   *siamGeoLocation `json:"geoLocation"`
}

type siamPlaybackResponse struct {
	Status int                 `json:"status"`
	Data   []siamPlaybackPoint `json:"data"`
}

func (p *SiamGPSProvider) FetchRoute(ctx context.Context, deviceID int, start, end time.Time, creds ports.Credentials) ([]domain.TrackPoint, error) {
	endpoint := p.baseURL + "/playback/listByVehicleId"
	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("vehicleId", strconv.Itoa(deviceID))
		q.Set("startDate", start.UTC().Format(time.RFC3339))
		q.Set("endDate", end.UTC().Format(time.RFC3339))
		req.URL.RawQuery = q.Encode()

		req.Header.Set("Authorization", bearer(creds.Authorization))
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fetchError(siamGPSName, err)
	}
	defer resp.Body.Close()

	var decoded siamPlaybackResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &ports.FetchError{Provider: siamGPSName, Parse: err}
	}

	points := make([]domain.TrackPoint, 0, len(decoded.Data))
	for _, raw := range decoded.Data {
		lat, lng, err := siamLatLng(raw.Location)
		if err != nil {
			return nil, &ports.FetchError{Provider: siamGPSName, Parse: err}
		}

		ts, err := time.Parse(time.RFC3339, raw.Time)
		if err != nil {
			return nil, &ports.FetchError{
				Provider: siamGPSName,
				Parse:    fmt.Errorf("parse time %q: %w", raw.Time, err),
			}
		}

		satellites := 0
		if raw.GPSFix {
			satellites = 10
		}

		address := ""
		if raw.GeoLocation != nil {
			address = raw.GeoLocation.SGeO
		}

		points = append(points, domain.TrackPoint{
			Timestamp:      ts,
			Lat:            lat,
			Lng:            lng,
			SpeedKph:       raw.Speed,
			HeadingDeg:     raw.Heading,
			IgnitionOn:     raw.VehicleStatus == "RUNNING",
			SatelliteCount: satellites,
			AddressHint:    address,
		})
	}

	return points, nil
}

// siamLatLng unpacks the vendor's [lng, lat] coordinate pair.
func siamLatLng(c *siamCoordinates) (lat, lng float64, err error) {
	if c == nil || len(c.Coordinates) != 2 {
		return 0, 0, fmt.Errorf("missing or malformed coordinate pair")
	}
	return c.Coordinates[1], c.Coordinates[0], nil
}

type siamRealtimePoint struct {
	// The vendor's realtime payload misspells "location" in some API
	// versions; both spellings are observed in production.
	Localtion     *siamCoordinates `json:"localtion"`
	Location      *siamCoordinates `json:"location"`
	Speed         float64          `json:"speed"`
	Time          string           `json:"time"`
	Heading       float64          `json:"heading"`
	VehicleStatus string           `json:"vehicleStatus"`
	GPSFix        bool             `json:"gpsFix"`
	GeoLocation   *siamGeoLocation `json:"geoLocation"`
}

type siamVehicleInfo struct {
	PlateNo string `json:"_vehiPlateNo"`
}

type siamRealtimeResponse struct {
	Status      int                 `json:"status"`
	Data        []siamRealtimePoint `json:"data"`
	VehicleInfo *siamVehicleInfo    `json:"vehicleInfo"`
}

func (p *SiamGPSProvider) FetchRealtime(ctx context.Context, deviceID int, creds ports.Credentials) (*ports.RealtimeSnapshot, error) {
	endpoint := fmt.Sprintf("%s/realtime/listByVehicleId/%d", p.baseURL, deviceID)
	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", bearer(creds.Authorization))
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fetchError(siamGPSName, err)
	}
	defer resp.Body.Close()

	var decoded siamRealtimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &ports.FetchError{Provider: siamGPSName, Parse: err}
	}

	if len(decoded.Data) == 0 {
		return nil, &ports.FetchError{
			Provider: siamGPSName,
			Parse:    fmt.Errorf("empty realtime data for vehicle %d", deviceID),
		}
	}

	latest := decoded.Data[0]
	coords := latest.Localtion
	if coords == nil {
		coords = latest.Location
	}
	lat, lng, err := siamLatLng(coords)
	if err != nil {
		return nil, &ports.FetchError{Provider: siamGPSName, Parse: err}
	}

	ts, err := time.Parse(time.RFC3339, latest.Time)
	if err != nil {
		return nil, &ports.FetchError{
			Provider: siamGPSName,
			Parse:    fmt.Errorf("parse time %q: %w", latest.Time, err),
		}
	}

	name := ""
	if decoded.VehicleInfo != nil {
		name = decoded.VehicleInfo.PlateNo
	}

	return &ports.RealtimeSnapshot{
		DeviceID:   deviceID,
		Name:       name,
		Point:      domain.GeoPoint{Lat: lat, Lng: lng},
		SpeedKph:   latest.Speed,
		Online:     true,
		IgnitionOn: latest.VehicleStatus == "RUNNING",
		Timestamp:  ts,
		Address:    strAddress(latest.GeoLocation),
	}, nil
}

func strAddress(g *siamGeoLocation) string {
	if g == nil {
		return ""
	}
	return g.SGeO
}
