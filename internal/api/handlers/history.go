package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"route-history-service/internal/api/dto"
	"route-history-service/internal/domain"
	"route-history-service/internal/services"
)

type HistoryHandler struct {
	Orchestrator *services.RouteFetchOrchestrator
}

// History returns one day of canonical route points per requested device.
// Devices that failed map to null; only a fully failed batch is an error.
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.RouteHistoryRequest

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

	routes, err := h.Orchestrator.FetchMany(r.Context(), req.DeviceIDs, req.Date, req.ForceFresh)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRequest):
			writeError(w, r, http.StatusBadRequest, "device_ids and a valid date are required")
		case errors.Is(err, services.ErrAllProvidersFailed):
			writeError(w, r, http.StatusBadGateway, "no provider returned data; check credentials")
		default:
			log.Printf("fetch route history failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	res := dto.RouteHistoryResponse{
		Date:   req.Date,
		Routes: make(map[int][]dto.TrackPointResponse, len(routes)),
	}
	for deviceID, points := range routes {
		if points == nil {
			res.Routes[deviceID] = nil
			continue
		}
		res.Routes[deviceID] = toPointResponses(points)
	}

	writeJSON(w, r, http.StatusOK, res)
}

func toPointResponses(points []domain.TrackPoint) []dto.TrackPointResponse {
	out := make([]dto.TrackPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, dto.TrackPointResponse{
			Timestamp:   p.Timestamp,
			Lat:         p.Lat,
			Lng:         p.Lng,
			SpeedKph:    p.SpeedKph,
			HeadingDeg:  p.HeadingDeg,
			IgnitionOn:  p.IgnitionOn,
			Satellites:  p.SatelliteCount,
			AddressHint: p.AddressHint,
		})
	}
	return out
}
