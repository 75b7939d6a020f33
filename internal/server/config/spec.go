// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for repovault-server.
type ServerConfig struct {
	Server      ServerSection      `koanf:"server"`
	Store       StoreSection       `koanf:"store"`
	KeyProvider KeyProviderSection `koanf:"key_provider"`
	Log         LogSection         `koanf:"log"`
}

// ServerSection configures the HTTP endpoint.
type ServerSection struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the sustained requests-per-second budget per server.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	// RateBurst is the burst allowance on top of RateLimit.
	RateBurst int `koanf:"rate_burst"`
}

// StoreSection selects and configures the token store backend.
type StoreSection struct {
	// Backend is one of "memory", "badger", "dynamo".
	Backend string `koanf:"backend"`

	// PageSize is the range-query page size for embedded backends.
	PageSize int `koanf:"page_size"`

	Badger BadgerConfig `koanf:"badger"`
	Dynamo DynamoConfig `koanf:"dynamo"`
}

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	Dir        string        `koanf:"dir"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// DynamoConfig configures the DynamoDB backend.
type DynamoConfig struct {
	Table  string `koanf:"table"`
	Region string `koanf:"region"`
}

// KeyProviderSection selects and configures the data-key provider.
type KeyProviderSection struct {
	// Backend is one of "kms", "local".
	Backend string `koanf:"backend"`

	// KeyID is the KMS customer master key for the kms backend, or the
	// key label bound as additional data by the local backend.
	KeyID string `koanf:"key_id"`

	// MasterKey is the base64 32-byte master key for the local backend.
	MasterKey string `koanf:"master_key"`

	// Region overrides the AWS region for the kms backend.
	Region string `koanf:"region"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
