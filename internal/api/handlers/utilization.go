package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"route-history-service/internal/api/dto"
	"route-history-service/internal/services"
)

const (
	defaultUtilizationDays = 7
	defaultOfficeHourStart = 8
	defaultOfficeHourEnd   = 17
)

type UtilizationHandler struct {
	Orchestrator *services.RouteFetchOrchestrator
}

// Utilization reports office-hour moving percentages per device and day,
// over either an explicit date range or the past N days.
func (h *UtilizationHandler) Utilization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.UtilizationRequest

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

	var dates []string
	if req.StartDate != "" || req.EndDate != "" {
		var err error
		dates, err = services.DateRange(req.StartDate, req.EndDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid start_date/end_date range")
			return
		}
	} else {
		days := req.Days
		if days == 0 {
			days = defaultUtilizationDays
		}
		if days < 1 || days > 90 {
			writeError(w, r, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
		dates = services.PastDays(days, time.Now())
	}

	startHour, endHour := req.OfficeHourStart, req.OfficeHourEnd
	if startHour == 0 && endHour == 0 {
		startHour, endHour = defaultOfficeHourStart, defaultOfficeHourEnd
	}

	utilization, err := h.Orchestrator.FetchUtilization(
		r.Context(), req.DeviceIDs, startHour, endHour, dates,
	)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			writeError(w, r, http.StatusBadRequest, "device_ids and a valid office-hour window are required")
			return
		}
		log.Printf("fetch utilization failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.UtilizationResponse{Utilization: utilization})
}
