// Package domain defines the core domain models for RepoVault.
//
// Domain models are pure value objects without IO dependencies or
// framework coupling. This package contains:
//
//   - TokenRecord: the persisted unit of an issued access token
//   - KeyPair: the two forms of a generated data encryption key
//   - Errors: domain-specific error definitions with structured codes
//
// The stored token field of a TokenRecord is the encrypted half of a
// data key; the plaintext half is handed to the caller once at issue
// time and never persisted.
package domain
