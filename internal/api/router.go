package api

import (
	"net/http"

	"route-history-service/internal/api/handlers"
	"route-history-service/internal/ports"
	"route-history-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware of
// concrete adapters).
func NewRouter(
	orchestrator *services.RouteFetchOrchestrator,
	analyzer *services.StopAnalyzer,
	registry ports.VehicleRegistry,
	routeCache ports.RouteCache,
) http.Handler {
	mux := http.NewServeMux()

	historyHandler := &handlers.HistoryHandler{Orchestrator: orchestrator}
	stopsHandler := &handlers.StopsHandler{
		Orchestrator: orchestrator,
		Analyzer:     analyzer,
		Registry:     registry,
	}
	utilizationHandler := &handlers.UtilizationHandler{Orchestrator: orchestrator}
	cacheHandler := &handlers.CacheHandler{Cache: routeCache}
	relayHandler := handlers.NewSiamGPSRelayHandler()

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/routes/history", historyHandler.History)
	mux.HandleFunc("/routes/stops", stopsHandler.Stops)
	mux.HandleFunc("/routes/utilization", utilizationHandler.Utilization)
	mux.HandleFunc("/cache/stats", cacheHandler.Stats)
	mux.HandleFunc("/cache/clear-expired", cacheHandler.ClearExpired)
	mux.HandleFunc("/cache", cacheHandler.ClearAll)
	mux.HandleFunc("/api/siamgps/route-history", relayHandler.RouteHistory)
	mux.HandleFunc("/api/siamgps/realtime/{vehicleId}", relayHandler.Realtime)

	return loggingMiddleware(mux)
}
