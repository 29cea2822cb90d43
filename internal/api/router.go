package api

import (
	"database/sql"
	"net/http"
	"route-planner-service/internal/api/handlers"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
)

// Dependencies are the services and adapters the HTTP surface needs.
type Dependencies struct {
	DB         *sql.DB
	Routes     *services.RouteService
	Tracking   *services.TrackingService
	Subscriber ports.PositionSubscriber
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{DB: deps.DB}
	routes := &handlers.RouteHandler{Service: deps.Routes}
	tracking := &handlers.TrackingHandler{Service: deps.Tracking, Subscriber: deps.Subscriber}

	mux.HandleFunc("GET /health", health.Health)

	mux.HandleFunc("GET /orders/eligible", routes.Eligible)

	mux.HandleFunc("GET /routes", routes.List)
	mux.HandleFunc("POST /routes", routes.Create)
	mux.HandleFunc("POST /routes/auto", routes.Auto)
	mux.HandleFunc("GET /routes/preview", routes.Preview)
	mux.HandleFunc("GET /routes/{id}", routes.Get)
	mux.HandleFunc("DELETE /routes/{id}", routes.Delete)
	mux.HandleFunc("POST /routes/{id}/start", routes.Start)
	mux.HandleFunc("POST /routes/{id}/optimize", routes.Optimize)
	mux.HandleFunc("PATCH /routes/{id}/stops/{orderId}/complete", routes.CompleteStop)

	mux.HandleFunc("POST /tracking/report", tracking.Report)
	mux.HandleFunc("GET /tracking/{routeId}/latest", tracking.Latest)
	mux.HandleFunc("GET /tracking/{routeId}/stream", tracking.Stream)

	return withRequestID(accessLog(mux))
}
