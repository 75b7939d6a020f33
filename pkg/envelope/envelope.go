// Package envelope wraps and unwraps data encryption keys under a
// long-lived master key using authenticated encryption.
//
// It is the local stand-in for a key-management service: Wrap produces
// the ciphertext form of a data key, Unwrap recovers the plaintext only
// for holders of the master key. The cipher is selected per hardware:
// AES-GCM where AES instructions are available, ChaCha20-Poly1305
// otherwise.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the wrapping algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// MasterKeySize is the required master key length in bytes.
// 32 bytes satisfies both AES-256-GCM and ChaCha20-Poly1305.
const MasterKeySize = 32

var (
	// ErrBadMasterKey indicates a master key of the wrong length.
	ErrBadMasterKey = errors.New("envelope: master key must be 32 bytes")

	// ErrCiphertextShort indicates a wrapped key too short to carry a nonce.
	ErrCiphertextShort = errors.New("envelope: ciphertext too short")
)

// Wrapper wraps and unwraps data keys under a master key.
type Wrapper struct {
	aead       cipher.AEAD
	cipherType CipherType
}

// New creates a Wrapper, picking the cipher for the current hardware.
func New(masterKey []byte) (*Wrapper, error) {
	if preferAES() {
		return NewWithType(masterKey, CipherAESGCM)
	}
	return NewWithType(masterKey, CipherChaCha20)
}

// NewWithType creates a Wrapper with an explicit cipher choice.
func NewWithType(masterKey []byte, cipherType CipherType) (*Wrapper, error) {
	if len(masterKey) != MasterKeySize {
		return nil, ErrBadMasterKey
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch cipherType {
	case CipherAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(masterKey)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case CipherChaCha20:
		aead, err = chacha20poly1305.New(masterKey)
	default:
		return nil, errors.New("envelope: unknown cipher type: " + string(cipherType))
	}
	if err != nil {
		return nil, err
	}

	return &Wrapper{aead: aead, cipherType: cipherType}, nil
}

// Type returns the cipher in use.
func (w *Wrapper) Type() CipherType {
	return w.cipherType
}

// Wrap encrypts a data key. The nonce is prepended to the result, and
// the additional data binds the wrapped key to its context (e.g. a key
// identifier) without being stored in the ciphertext.
func (w *Wrapper) Wrap(dataKey, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, w.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return w.aead.Seal(nonce, nonce, dataKey, additionalData), nil
}

// Unwrap authenticates and decrypts a wrapped data key.
func (w *Wrapper) Unwrap(wrapped, additionalData []byte) ([]byte, error) {
	if len(wrapped) < w.aead.NonceSize() {
		return nil, ErrCiphertextShort
	}
	nonce := wrapped[:w.aead.NonceSize()]
	return w.aead.Open(nil, nonce, wrapped[w.aead.NonceSize():], additionalData)
}

// preferAES reports whether the platform has hardware AES support.
// Go uses AES-NI on amd64 and the ARM crypto extensions on arm64.
func preferAES() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}
