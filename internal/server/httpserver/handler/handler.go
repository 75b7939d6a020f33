package handler

import (
	"encoding/json"
	"net/http"

	"github.com/repovault/repovault-go/internal/core/domain"
	"github.com/repovault/repovault-go/internal/core/service"
	"github.com/repovault/repovault-go/internal/telemetry/logger"
	"github.com/repovault/repovault-go/internal/telemetry/metric"
)

// Generic client-facing messages. Validation detail is logged, never
// echoed, so callers cannot probe which field failed.
const (
	msgInvalidInput  = "Invalid input."
	msgInternalError = "Internal server error."
)

// Handler routes API requests to the credential service.
type Handler struct {
	svc     *service.CredentialService
	log     logger.Logger
	metrics *metric.Registry
	mux     *http.ServeMux
}

// New creates a Handler over the credential service.
func New(svc *service.CredentialService, log logger.Logger, metrics *metric.Registry) *Handler {
	if log == nil {
		log = logger.Default()
	}
	h := &Handler{
		svc:     svc,
		log:     log,
		metrics: metrics,
		mux:     http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /api/GenerateToken", h.handleGenerateToken)
	h.mux.HandleFunc("POST /api/ListTokensByRepoID", h.handleListTokens)
	h.mux.HandleFunc("POST /api/DeleteToken", h.handleDeleteToken)

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("/", h.handleNotFound)
}

// writeJSON writes a JSON response body.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

// writeError writes the generic error envelope.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("X-Error-Code", code)
	h.writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// handleServiceError maps a service error onto the wire contract:
// validation → 400 generic, everything else → 500 generic. The real
// error is logged with full detail either way.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.GetErrorCode(err)
	h.countError(code)

	if domain.IsValidation(err) {
		h.log.WithContext(r.Context()).Warn("request rejected",
			"path", r.URL.Path,
			"code", code,
			"error", err)
		h.writeError(w, http.StatusBadRequest, code, msgInvalidInput)
		return
	}

	h.log.WithContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"code", code,
		"error", err)
	h.writeError(w, http.StatusInternalServerError, code, msgInternalError)
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, domain.ErrRouteNotFound.Code, "Not found.")
}

func (h *Handler) countError(family string) {
	if h.metrics == nil {
		return
	}
	// RV-STOR-5010 -> STOR
	if len(family) > 3 && family[:3] == "RV-" {
		family = family[3:]
		for i := range family {
			if family[i] == '-' {
				family = family[:i]
				break
			}
		}
	}
	h.metrics.Errors.WithLabelValues(family).Inc()
}
