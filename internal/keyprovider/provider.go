// Package keyprovider produces single-use data-encryption-key pairs for
// token issuance.
//
// A key pair is the same 20-byte random key in two forms: the plaintext
// handed to the caller as the bearer credential and the ciphertext kept
// as the stored token. Key pairs are capability tokens, not reusable
// secrets, so providers never cache and never retain either form.
//
// Two implementations exist: KMSProvider (AWS KMS GenerateDataKey) and
// LocalProvider (file master key, for dev and tests).
package keyprovider

import (
	"context"

	"github.com/repovault/repovault-go/internal/core/domain"
)

// DataKeyBytes is the size of every generated data key.
const DataKeyBytes = 20

// Provider generates fresh data key pairs.
type Provider interface {
	// GenerateKeyPair requests one fresh key pair from the backend.
	// Every call produces an independent key; results are never cached.
	// Failures surface as domain.ErrKeyProvider.
	GenerateKeyPair(ctx context.Context) (*domain.KeyPair, error)
}

// validatePair rejects malformed backend output. An empty half would
// mint a token that can never be listed or revoked.
func validatePair(pair *domain.KeyPair) error {
	if len(pair.Plaintext) == 0 || len(pair.Ciphertext) == 0 {
		return domain.ErrKeyProvider.WithDetails("backend returned incomplete key pair")
	}
	return nil
}
