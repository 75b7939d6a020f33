package keyprovider

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"

	"github.com/repovault/repovault-go/internal/core/domain"
	"github.com/repovault/repovault-go/pkg/envelope"
)

// LocalProvider generates data key pairs without a key-management
// service: the plaintext is read from the local CSPRNG and the
// ciphertext is the plaintext wrapped under a configured master key.
//
// Meant for development and tests. The observable contract matches
// KMSProvider: the stored form is undecipherable without the master key.
type LocalProvider struct {
	wrapper *envelope.Wrapper
	keyID   string
	logger  *slog.Logger
}

// NewLocalProvider creates a provider wrapping keys under masterKey.
// keyID is bound into the wrap as additional data, mirroring how KMS
// ties ciphertext blobs to a key identifier.
func NewLocalProvider(masterKey []byte, keyID string, logger *slog.Logger) (*LocalProvider, error) {
	wrapper, err := envelope.New(masterKey)
	if err != nil {
		return nil, domain.ErrKeyProvider.WithCause(err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalProvider{
		wrapper: wrapper,
		keyID:   keyID,
		logger:  logger,
	}, nil
}

// GenerateKeyPair generates and wraps a fresh 20-byte data key.
func (p *LocalProvider) GenerateKeyPair(ctx context.Context) (*domain.KeyPair, error) {
	plaintext := make([]byte, DataKeyBytes)
	if _, err := io.ReadFull(rand.Reader, plaintext); err != nil {
		return nil, domain.ErrKeyProvider.WithCause(err)
	}

	ciphertext, err := p.wrapper.Wrap(plaintext, []byte(p.keyID))
	if err != nil {
		p.logger.Error("local key wrap failed", "key_id", p.keyID, "error", err)
		return nil, domain.ErrKeyProvider.WithCause(err)
	}

	pair := &domain.KeyPair{
		Plaintext:  plaintext,
		Ciphertext: ciphertext,
	}
	if err := validatePair(pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// Unwrap recovers a plaintext data key from its stored form. Exposed so
// a co-located gateway can validate presented credentials in dev setups.
func (p *LocalProvider) Unwrap(ciphertext []byte) ([]byte, error) {
	plaintext, err := p.wrapper.Unwrap(ciphertext, []byte(p.keyID))
	if err != nil {
		return nil, domain.ErrKeyProvider.WithCause(err)
	}
	return plaintext, nil
}
