package handler

import (
	"net/http"

	"github.com/repovault/repovault-go/internal/infra/buildinfo"
)

// handleHealth reports liveness.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: buildinfo.Version,
	})
}

// handleReady reports readiness. The service holds no warm-up state, so
// readiness matches liveness.
func (h *Handler) handleReady(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ready",
		Version: buildinfo.Version,
	})
}
