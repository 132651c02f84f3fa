package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/capitalize-ai/theology-chat/internal/theology"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Checker reports whether a dependency can serve requests.
type Checker interface {
	Ready(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Ready implements Checker.
func (f CheckerFunc) Ready(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checks map[string]Checker
}

// NewHealthHandler creates a new health handler. checks are consulted by Ready.
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	return &HealthHandler{
		checks: checks,
	}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Authors   string    `json:"authors"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &HealthStatus{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Version:   Version,
		Authors:   theology.Authors,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, check := range h.checks {
		if err := check.Ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": name + ": " + err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
