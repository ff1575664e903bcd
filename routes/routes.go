package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/privata-labs/privata/app"
	"github.com/privata-labs/privata/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware for the local UI
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", handlers.HealthCheck(deps))
	r.Get("/readyz", handlers.ReadinessCheck(deps))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Pipeline runs: one active run at a time, polled by the UI
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", handlers.StartRunHandler(deps))
			r.Get("/current", handlers.RunStatusHandler(deps))
			r.Post("/current/abort", handlers.AbortRunHandler(deps))
			r.Get("/current/ledger", handlers.RunLedgerHandler(deps))
			r.Get("/current/report", handlers.RunReportHandler(deps))
		})

		// Saved analyses
		r.Route("/analyses", func(r chi.Router) {
			r.Get("/", handlers.ListAnalysesHandler(deps))
			r.Post("/", handlers.SaveAnalysisHandler(deps))
			r.Get("/{name}", handlers.GetAnalysisHandler(deps))
			r.Delete("/{name}", handlers.DeleteAnalysisHandler(deps))
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
