package keyprovider

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/repovault/repovault-go/internal/core/domain"
)

// KMSClient is the subset of the AWS KMS client used by KMSProvider.
// Narrowed so tests can substitute a fake.
type KMSClient interface {
	GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
}

// KMSProvider generates data key pairs via AWS KMS.
//
// The ciphertext blob is decryptable only through kms:Decrypt on the
// configured master key, so the stored token form is useless without
// access to that key.
type KMSProvider struct {
	client KMSClient
	keyID  string
	logger *slog.Logger
}

// NewKMSProvider creates a provider bound to one KMS master key.
func NewKMSProvider(client KMSClient, keyID string, logger *slog.Logger) *KMSProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &KMSProvider{
		client: client,
		keyID:  keyID,
		logger: logger,
	}
}

// GenerateKeyPair requests a fresh 20-byte data key from KMS.
func (p *KMSProvider) GenerateKeyPair(ctx context.Context) (*domain.KeyPair, error) {
	out, err := p.client.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:         aws.String(p.keyID),
		NumberOfBytes: aws.Int32(DataKeyBytes),
	})
	if err != nil {
		p.logger.Error("kms generate data key failed", "key_id", p.keyID, "error", err)
		return nil, domain.ErrKeyProvider.WithCause(err)
	}

	pair := &domain.KeyPair{
		Plaintext:  out.Plaintext,
		Ciphertext: out.CiphertextBlob,
	}
	if err := validatePair(pair); err != nil {
		p.logger.Error("kms returned malformed key pair", "key_id", p.keyID)
		return nil, err
	}
	return pair, nil
}
