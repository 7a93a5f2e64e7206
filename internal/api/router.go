package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/psbridge/psbridge/internal/config"
	"github.com/psbridge/psbridge/internal/middleware"
	"github.com/psbridge/psbridge/internal/runner"
)

// NewRouter creates and configures the API router
func NewRouter(cfg *config.Config, executor Executor, proc runner.ProcessRunner, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// CORS (if enabled)
	if cfg.CORS.Enabled {
		r.Use(middleware.CORS(
			cfg.CORS.AllowedOrigins,
			cfg.CORS.AllowedMethods,
			cfg.CORS.AllowedHeaders,
			cfg.CORS.MaxAgeSeconds,
		))
	}

	healthHandler := NewHealthHandler(proc, cfg.Health, cfg.Runner)
	executionHandler := NewExecutionHandler(executor)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Post("/execute-script", executionHandler.ExecuteScript)
	r.Post("/manage-services", executionHandler.ManageServices)
	r.Post("/system-info", executionHandler.SystemInfo)

	return r
}
