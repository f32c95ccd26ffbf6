package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SiamGPSRelayHandler forwards browser requests to the Siam GPS API so the
// raw bearer token never has to live in a browser-visible header. It is a
// pure pass-through: no analysis logic, upstream status and body are relayed
// verbatim.
type SiamGPSRelayHandler struct {
	Client  *http.Client
	BaseURL string
}

func NewSiamGPSRelayHandler() *SiamGPSRelayHandler {
	return &SiamGPSRelayHandler{
		Client:  &http.Client{Timeout: 20 * time.Second},
		BaseURL: "https://services.siamgpstrack.com",
	}
}

type relayRouteRequest struct {
	VehicleID     int    `json:"vehicleId"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Authorization string `json:"authorization"`
}

type relayRealtimeRequest struct {
	Authorization string `json:"authorization"`
}

// RouteHistory relays POST /api/siamgps/route-history to the vendor's
// playback endpoint (GET with query parameters).
func (h *SiamGPSRelayHandler) RouteHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req relayRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	r.Body.Close()

	if req.VehicleID == 0 || req.StartDate == "" || req.EndDate == "" || req.Authorization == "" {
		writeError(w, r, http.StatusBadRequest, "vehicleId, startDate, endDate and authorization are required")
		return
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodGet,
		h.BaseURL+"/playback/listByVehicleId", nil)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	q := upstream.URL.Query()
	q.Set("vehicleId", strconv.Itoa(req.VehicleID))
	q.Set("startDate", req.StartDate)
	q.Set("endDate", req.EndDate)
	upstream.URL.RawQuery = q.Encode()

	upstream.Header.Set("Authorization", relayBearer(req.Authorization))
	upstream.Header.Set("Accept", "application/json")

	h.forward(w, r, upstream)
}

// Realtime relays POST /api/siamgps/realtime/{vehicleId} to the vendor's
// realtime endpoint.
func (h *SiamGPSRelayHandler) Realtime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	vehicleID, err := strconv.Atoi(r.PathValue("vehicleId"))
	if err != nil || vehicleID <= 0 {
		writeError(w, r, http.StatusBadRequest, "vehicleId must be a positive integer")
		return
	}

	var req relayRealtimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	r.Body.Close()

	if req.Authorization == "" {
		writeError(w, r, http.StatusBadRequest, "authorization is required")
		return
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodGet,
		fmt.Sprintf("%s/realtime/listByVehicleId/%d", h.BaseURL, vehicleID), nil)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	upstream.Header.Set("Authorization", relayBearer(req.Authorization))
	upstream.Header.Set("Accept", "application/json")

	h.forward(w, r, upstream)
}

// forward executes the upstream request and relays status + body verbatim.
func (h *SiamGPSRelayHandler) forward(w http.ResponseWriter, r *http.Request, upstream *http.Request) {
	resp, err := h.Client.Do(upstream)
	if err != nil {
		log.Printf("siamgps relay failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
		writeError(w, r, http.StatusBadGateway, "failed to reach Siam GPS")
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("siamgps relay copy failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func relayBearer(token string) string {
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}
