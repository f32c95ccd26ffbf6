package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"route-history-service/internal/api/dto"
	"route-history-service/internal/domain"
	"route-history-service/internal/ports"
	"route-history-service/internal/services"
)

// Default analysis knobs, matching the operator's usual configuration.
const (
	defaultRadiusMeters       = 200
	defaultMinDurationMinutes = 5
)

type StopsHandler struct {
	Orchestrator *services.RouteFetchOrchestrator
	Analyzer     *services.StopAnalyzer
	Registry     ports.VehicleRegistry
}

// Stops fetches one day of routes and reduces each to its coalesced stop
// events, labeled against the reference-location set.
func (h *StopsHandler) Stops(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.StopsRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	radius := req.RadiusMeters
	if radius == 0 {
		radius = defaultRadiusMeters
	}
	if radius < 0 || radius > 10000 {
		writeError(w, r, http.StatusBadRequest, "radius_meters must be between 0 and 10000")
		return
	}

	minDuration := req.MinDurationMinutes
	if minDuration == 0 {
		minDuration = defaultMinDurationMinutes
	}
	if minDuration < 0 {
		writeError(w, r, http.StatusBadRequest, "min_duration_minutes must not be negative")
		return
	}

	routes, err := h.Orchestrator.FetchMany(r.Context(), req.DeviceIDs, req.Date, req.ForceFresh)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRequest):
			writeError(w, r, http.StatusBadRequest, "device_ids and a valid date are required")
		case errors.Is(err, services.ErrAllProvidersFailed):
			writeError(w, r, http.StatusBadGateway, "no provider returned data; check credentials")
		default:
			log.Printf("fetch routes for stops failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	res := dto.StopsResponse{
		Date:  req.Date,
		Stops: make(map[int][]dto.StopResponse, len(routes)),
	}

	for deviceID, points := range routes {
		if points == nil {
			res.Stops[deviceID] = nil
			continue
		}

		vehicleName := ""
		if vehicle, verr := h.Registry.VehicleByDeviceID(r.Context(), deviceID); verr == nil && vehicle != nil {
			vehicleName = vehicle.Name
		}

		stops := h.Analyzer.Analyze(points, radius, deviceID, vehicleName)
		stops = h.Analyzer.Coalesce(stops, minDuration, radius)
		res.Stops[deviceID] = toStopResponses(stops)
	}

	writeJSON(w, r, http.StatusOK, res)
}

func toStopResponses(stops []domain.StopEvent) []dto.StopResponse {
	out := make([]dto.StopResponse, 0, len(stops))
	for _, s := range stops {
		out = append(out, dto.StopResponse{
			DeviceID:               s.DeviceID,
			VehicleName:            s.VehicleName,
			Location:               s.Location,
			Lat:                    s.Point.Lat,
			Lng:                    s.Point.Lng,
			StartTime:              s.StartTime,
			EndTime:                s.EndTime,
			DurationMinutes:        s.DurationMinutes,
			DurationFormatted:      domain.FormatDuration(s.DurationMinutes),
			DistanceFromPreviousKm: s.DistanceFromPreviousKm,
		})
	}
	return out
}
