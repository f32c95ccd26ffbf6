package handlers

import (
	"log"
	"net/http"

	"route-history-service/internal/api/dto"
	"route-history-service/internal/ports"
)

type CacheHandler struct {
	Cache ports.RouteCache
}

// Stats reports cache size and age bounds.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.Cache.Stats(r.Context())
	if err != nil {
		log.Printf("cache stats failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.CacheStatsResponse{
		Count:                stats.Count,
		ApproximateSizeBytes: stats.ApproximateSizeBytes,
		OldestFetchedAt:      stats.OldestFetchedAt,
		NewestFetchedAt:      stats.NewestFetchedAt,
	})
}

// ClearExpired sweeps the store and reports the eviction count.
func (h *CacheHandler) ClearExpired(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	evicted, err := h.Cache.ClearExpired(r.Context())
	if err != nil {
		log.Printf("cache sweep failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ClearExpiredResponse{Evicted: evicted})
}

// ClearAll empties the route cache.
func (h *CacheHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", http.MethodDelete)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := h.Cache.ClearAll(r.Context()); err != nil {
		log.Printf("cache clear failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "cleared"})
}
