// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conformeahq/conformea/pkg/database"
)

// HealthChecker defines the interface for health checks.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db        *database.DB
	events    HealthChecker
	version   string
	gitCommit string
}

// HealthHandlerConfig contains configuration for the health handler.
type HealthHandlerConfig struct {
	DB        *database.DB
	Events    HealthChecker
	Version   string
	GitCommit string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg HealthHandlerConfig) *HealthHandler {
	return &HealthHandler{
		db:        cfg.DB,
		events:    cfg.Events,
		version:   cfg.Version,
		gitCommit: cfg.GitCommit,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	Service   string `json:"service"`
}

// Liveness handles the liveness probe.
// This endpoint returns 200 if the service is running.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readiness handles the readiness probe.
// This endpoint returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	allHealthy := true

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	if h.events != nil {
		if err := h.events.Health(ctx); err != nil {
			// Event delivery is not critical for serving API traffic
			checks["kafka"] = "unhealthy: " + err.Error()
		} else {
			checks["kafka"] = "healthy"
		}
	} else {
		checks["kafka"] = "not configured"
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: status, Checks: checks})
}

// Version handles the version endpoint.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	response := VersionResponse{
		Version:   h.version,
		GitCommit: h.gitCommit,
		Service:   "conformea-api",
	}
	writeJSON(w, http.StatusOK, response)
}

// Metrics handles the Prometheus metrics endpoint.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
