package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5090"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRateLimit       = 100.0
	DefaultRateBurst       = 200

	DefaultStoreBackend = "memory"
	DefaultPageSize     = 100
	DefaultBadgerDir    = "/var/lib/repovault-server/data"
	DefaultGCInterval   = 10 * time.Minute
	DefaultDynamoTable  = "RepoVaultTokens"

	DefaultKeyBackend = "local"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:            DefaultHTTPAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RateLimit:       DefaultRateLimit,
			RateBurst:       DefaultRateBurst,
		},
		Store: StoreSection{
			Backend:  DefaultStoreBackend,
			PageSize: DefaultPageSize,
			Badger: BadgerConfig{
				Dir:        DefaultBadgerDir,
				SyncWrites: true,
				GCInterval: DefaultGCInterval,
			},
			Dynamo: DynamoConfig{
				Table: DefaultDynamoTable,
			},
		},
		KeyProvider: KeyProviderSection{
			Backend: DefaultKeyBackend,
			KeyID:   "repovault-local",
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
