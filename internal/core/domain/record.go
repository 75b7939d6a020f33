package domain

import (
	"encoding/base64"
	"strings"
)

// TokenRecord is the persisted unit of an issued repository access token.
//
// Token holds the base64-encoded ciphertext form of a generated data key
// and is the store's primary key. The plaintext form is returned to the
// caller exactly once and never stored, so a copy of the store alone is
// not enough to recover a usable credential.
type TokenRecord struct {
	// Token is the base64-encoded encrypted data key (primary key).
	Token string `json:"token"`

	// RepoID is the repository the token grants access to.
	RepoID string `json:"repoID"`

	// Username is the principal the token was issued for.
	Username string `json:"username"`

	// Expiration is the moment after which the token must no longer be
	// honored, in epoch seconds. Stored exactly as given; enforcement
	// belongs to the gateway that validates presented tokens.
	Expiration int64 `json:"expiration"`
}

// Validate checks that the record carries everything Issue must persist.
func (r *TokenRecord) Validate() error {
	if r.Token == "" {
		return ErrMissingArgument.WithDetails("token is required")
	}
	if r.RepoID == "" {
		return ErrMissingArgument.WithDetails("repoID is required")
	}
	if r.Username == "" {
		return ErrMissingArgument.WithDetails("username is required")
	}
	return nil
}

// Clone returns a copy of the record.
func (r *TokenRecord) Clone() *TokenRecord {
	clone := *r
	return &clone
}

// KeyPair is the output of one key provider call: the same data key in
// its plaintext and encrypted forms.
type KeyPair struct {
	// Plaintext is the raw data key handed to the caller as the bearer
	// credential.
	Plaintext []byte

	// Ciphertext is the encrypted data key, decryptable only by the
	// key-management backend that issued it.
	Ciphertext []byte
}

// EncodedPlaintext returns the plaintext key base64-encoded for the wire.
func (p *KeyPair) EncodedPlaintext() string {
	return base64.StdEncoding.EncodeToString(p.Plaintext)
}

// EncodedCiphertext returns the encrypted key base64-encoded for storage.
func (p *KeyPair) EncodedCiphertext() string {
	return base64.StdEncoding.EncodeToString(p.Ciphertext)
}

// MaskToken masks a token value for safe logging.
// Shows the first and last three characters with the middle elided.
func MaskToken(token string) string {
	if len(token) < 10 {
		return "***REDACTED***"
	}
	return token[:3] + "..." + token[len(token)-3:]
}

// LooksLikeToken reports whether a string plausibly carries token
// material (base64 of at least a 20-byte key). Used by log redaction.
func LooksLikeToken(s string) bool {
	if len(s) < 28 {
		return false
	}
	trimmed := strings.TrimRight(s, "=")
	for _, c := range trimmed {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '+' || c == '/':
		default:
			return false
		}
	}
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}
