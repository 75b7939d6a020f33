package handler

import (
	"encoding/json"
	"net/http"

	"github.com/repovault/repovault-go/internal/core/domain"
	"github.com/repovault/repovault-go/internal/core/service"
)

// handleGenerateToken issues a credential.
//
//	POST /api/GenerateToken
//	{"repoID": "...", "username": "...", "expiration": "2030-01-01T00:00:00Z"}
func (h *Handler) handleGenerateToken(w http.ResponseWriter, r *http.Request) {
	var req GenerateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	resp, err := h.svc.Issue(r.Context(), &service.IssueRequest{
		RepoID:     req.RepoID,
		Username:   req.Username,
		Expiration: int64(req.Expiration),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TokensIssued.Inc()
	}
	h.writeJSON(w, http.StatusOK, GenerateTokenResponse{Token: resp.Credential})
}

// handleListTokens lists the stored records for a repository.
//
//	POST /api/ListTokensByRepoID
//	{"repoID": "...", "username": "..."} (username optional)
func (h *Handler) handleListTokens(w http.ResponseWriter, r *http.Request) {
	var req ListTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	records, err := h.svc.List(r.Context(), req.RepoID, req.Username)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	items := make([]TokenItem, 0, len(records))
	for _, rec := range records {
		items = append(items, toTokenItem(rec))
	}

	if h.metrics != nil {
		h.metrics.TokensListed.Inc()
		h.metrics.ListRecords.Observe(float64(len(items)))
	}
	h.writeJSON(w, http.StatusOK, ListTokensResponse{Items: items})
}

// handleDeleteToken revokes a token. Succeeds whether or not the token
// exists.
//
//	POST /api/DeleteToken
//	{"token": "..."}
func (h *Handler) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	var req DeleteTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.svc.Revoke(r.Context(), req.Token); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TokensRevoked.Inc()
	}
	h.writeJSON(w, http.StatusOK, DeleteTokenResponse{Success: true})
}

// badRequest handles malformed JSON bodies with the same generic
// answer a failed validation gets.
func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.countError(domain.ErrBadRequest.Code)
	h.log.WithContext(r.Context()).Warn("malformed request body",
		"path", r.URL.Path,
		"error", err)
	h.writeError(w, http.StatusBadRequest, domain.ErrBadRequest.Code, msgInvalidInput)
}
