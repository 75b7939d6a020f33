// Package handler implements the HTTP API for credential management.
//
// The API mirrors the management endpoints the service replaced:
// request and response field names (repoID, username, Items, success)
// are part of the external contract and must not change.
package handler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/repovault/repovault-go/internal/core/domain"
)

// Expiry is an epoch-seconds timestamp that accepts several JSON
// shapes: a number, a numeric string, or an RFC 3339 string.
type Expiry int64

// UnmarshalJSON implements json.Unmarshaler.
func (e *Expiry) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return fmt.Errorf("expiration %q is not a whole number", v)
		}
		*e = Expiry(n)
		return nil
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*e = Expiry(n)
			return nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("expiration %q is neither epoch seconds nor RFC 3339", v)
		}
		*e = Expiry(t.Unix())
		return nil
	default:
		return fmt.Errorf("expiration has unsupported type %T", raw)
	}
}

// GenerateTokenRequest is the request body for POST /api/GenerateToken.
type GenerateTokenRequest struct {
	RepoID     string `json:"repoID"`
	Username   string `json:"username"`
	Expiration Expiry `json:"expiration"`
}

// GenerateTokenResponse is the response body for POST /api/GenerateToken.
// Token carries the plaintext credential; it is returned here once and
// never retrievable again.
type GenerateTokenResponse struct {
	Token string `json:"token"`
}

// ListTokensRequest is the request body for POST /api/ListTokensByRepoID.
type ListTokensRequest struct {
	RepoID   string `json:"repoID"`
	Username string `json:"username,omitempty"`
}

// ListTokensResponse is the response body for POST /api/ListTokensByRepoID.
type ListTokensResponse struct {
	Items []TokenItem `json:"Items"`
}

// TokenItem is one stored token record in list responses.
type TokenItem struct {
	Token      string `json:"token"`
	RepoID     string `json:"repoID"`
	Username   string `json:"username"`
	Expiration int64  `json:"expiration"`
}

func toTokenItem(r *domain.TokenRecord) TokenItem {
	return TokenItem{
		Token:      r.Token,
		RepoID:     r.RepoID,
		Username:   r.Username,
		Expiration: r.Expiration,
	}
}

// DeleteTokenRequest is the request body for POST /api/DeleteToken.
type DeleteTokenRequest struct {
	Token string `json:"token"`
}

// DeleteTokenResponse is the response body for POST /api/DeleteToken.
type DeleteTokenResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the error envelope. Message stays generic; detail
// lives in the server log, keyed by request ID.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body for GET /health and GET /ready.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
