// Package service provides the domain services for RepoVault.
//
// Domain services contain the business logic and orchestrate operations
// on domain models. They define interfaces for their storage and key
// provider dependencies; concrete backends live under internal/storage
// and internal/keyprovider.
package service

import (
	"context"
	"log/slog"

	"github.com/repovault/repovault-go/internal/core/domain"
	"github.com/repovault/repovault-go/internal/keyprovider"
	"github.com/repovault/repovault-go/internal/storage"
)

// CredentialService issues, lists, and revokes repository access
// credentials. Issued credentials are wrapped by the key provider: the
// ciphertext half is persisted as the token record, the plaintext half
// is handed to the caller exactly once and never stored.
type CredentialService struct {
	provider keyprovider.Provider
	store    storage.TokenStore
	logger   *slog.Logger
}

// NewCredentialService creates a service over the given provider and store.
func NewCredentialService(provider keyprovider.Provider, store storage.TokenStore, logger *slog.Logger) *CredentialService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialService{
		provider: provider,
		store:    store,
		logger:   logger,
	}
}

// IssueRequest contains the parameters for credential issuance.
type IssueRequest struct {
	RepoID     string // Repository the credential grants access to
	Username   string // Principal the credential is issued for
	Expiration int64  // Expiry as Unix seconds, recorded verbatim
}

// IssueResponse contains the result of credential issuance.
type IssueResponse struct {
	// Credential is the base64 plaintext key half. It exists only in
	// this response; the service retains no copy.
	Credential string

	// Record is the persisted record, carrying the ciphertext token.
	Record *domain.TokenRecord
}

// Issue generates a fresh key pair, persists the ciphertext half as the
// token record, and returns the plaintext half as the credential.
//
// Validation happens before any side effect: an invalid request reaches
// neither the key provider nor the store.
func (s *CredentialService) Issue(ctx context.Context, req *IssueRequest) (*IssueResponse, error) {
	if req == nil {
		return nil, domain.ErrMissingArgument.WithDetails("issue request is required")
	}
	probe := domain.TokenRecord{
		Token:      "pending",
		RepoID:     req.RepoID,
		Username:   req.Username,
		Expiration: req.Expiration,
	}
	if err := probe.Validate(); err != nil {
		return nil, err
	}

	pair, err := s.provider.GenerateKeyPair(ctx)
	if err != nil {
		s.logger.Error("key pair generation failed",
			"repo_id", req.RepoID,
			"error", err)
		return nil, err
	}

	record := &domain.TokenRecord{
		Token:      pair.EncodedCiphertext(),
		RepoID:     req.RepoID,
		Username:   req.Username,
		Expiration: req.Expiration,
	}
	if err := s.store.Put(ctx, record); err != nil {
		s.logger.Error("token record persist failed",
			"repo_id", req.RepoID,
			"error", err)
		return nil, err
	}

	s.logger.Info("credential issued",
		"repo_id", req.RepoID,
		"username", req.Username,
		"token", domain.MaskToken(record.Token))

	return &IssueResponse{
		Credential: pair.EncodedPlaintext(),
		Record:     record,
	}, nil
}

// List returns every token record for a repository, filtered to an
// exact username when one is given. The listing is complete: the store
// is paged to exhaustion before anything is returned.
func (s *CredentialService) List(ctx context.Context, repoID, username string) ([]*domain.TokenRecord, error) {
	if repoID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("repoID is required")
	}

	records, err := s.store.QueryByRepo(ctx, repoID, username)
	if err != nil {
		s.logger.Error("token listing failed",
			"repo_id", repoID,
			"error", err)
		return nil, err
	}
	if records == nil {
		records = []*domain.TokenRecord{}
	}
	return records, nil
}

// Revoke deletes a token record. Revoking an absent token succeeds:
// the end state, token gone, is the same either way.
func (s *CredentialService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrMissingArgument.WithDetails("token is required")
	}

	if _, err := s.store.DeleteByToken(ctx, token); err != nil {
		s.logger.Error("token revoke failed",
			"token", domain.MaskToken(token),
			"error", err)
		return err
	}

	s.logger.Info("credential revoked", "token", domain.MaskToken(token))
	return nil
}
