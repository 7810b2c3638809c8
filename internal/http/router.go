package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stock-count/internal/handlers"
	"stock-count/internal/middleware"
)

func NewRouter(
	importHandler *handlers.ImportHandler,
	productHandler *handlers.ProductHandler,
	countHandler *handlers.CountHandler,
	sessionHandler *handlers.SessionHandler,
	searchHandler *handlers.SearchHandler,
	reportHandler *handlers.ReportHandler,
	exportHandler *handlers.ExportHandler,
	healthHandler *handlers.HealthHandler,
	sessionMiddleware *middleware.SessionMiddleware,
	requestLogger *middleware.RequestLogger,
) *mux.Router {
	r := mux.NewRouter()

	// Labels metrics by route template, so it must run inside the router
	r.Use(middleware.MetricsMiddleware)

	// Session-scoped API
	api := r.PathPrefix("/api").Subrouter()
	api.Use(sessionMiddleware.Attach)
	api.Use(requestLogger.Handler)

	// Import
	api.HandleFunc("/import", importHandler.Import).Methods("POST")

	// Products
	api.HandleFunc("/products", productHandler.ListProducts).Methods("GET")
	api.HandleFunc("/products/{id}", productHandler.GetProduct).Methods("GET")
	api.HandleFunc("/products/{id}/closed", productHandler.SetClosed).Methods("PUT")

	// Search
	api.HandleFunc("/search", searchHandler.Search).Methods("GET")
	api.HandleFunc("/search/recent", searchHandler.Recent).Methods("GET")

	// Counting
	api.HandleFunc("/counts", countHandler.RecordCount).Methods("POST")
	api.HandleFunc("/sessions", sessionHandler.ListSessions).Methods("GET")
	api.HandleFunc("/sessions", sessionHandler.StartSession).Methods("POST")
	api.HandleFunc("/locations", sessionHandler.ListLocations).Methods("GET")
	api.HandleFunc("/session", sessionHandler.Teardown).Methods("DELETE")

	// Reports and export
	api.HandleFunc("/report/summary", reportHandler.GetSummary).Methods("GET")
	api.HandleFunc("/report/pdf", reportHandler.GetSummaryPDF).Methods("GET")
	api.HandleFunc("/report/canonical.csv", reportHandler.GetCanonicalCSV).Methods("GET")
	api.HandleFunc("/export", exportHandler.Export).Methods("GET")

	// Health endpoints (no auth required)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
