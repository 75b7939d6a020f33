package config

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStore(&cfg.Store); err != nil {
		return err
	}
	return verifyKeyProvider(&cfg.KeyProvider)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("server.rate_burst must be at least 1 when rate limiting is on")
	}
	return nil
}

func verifyStore(cfg *StoreSection) error {
	switch cfg.Backend {
	case "memory":
	case "badger":
		if cfg.Badger.Dir == "" {
			return errors.New("store.badger.dir is required for the badger backend")
		}
	case "dynamo":
		if cfg.Dynamo.Table == "" {
			return errors.New("store.dynamo.table is required for the dynamo backend")
		}
	default:
		return fmt.Errorf("store.backend %q is not one of memory, badger, dynamo", cfg.Backend)
	}

	if cfg.PageSize < 0 {
		return errors.New("store.page_size must not be negative")
	}
	return nil
}

func verifyKeyProvider(cfg *KeyProviderSection) error {
	switch cfg.Backend {
	case "kms":
		if cfg.KeyID == "" {
			return errors.New("key_provider.key_id is required for the kms backend")
		}
	case "local":
		// An empty master key is allowed: the provider generates an
		// ephemeral one, useful for development only.
		if cfg.MasterKey != "" {
			raw, err := base64.StdEncoding.DecodeString(cfg.MasterKey)
			if err != nil {
				return errors.New("key_provider.master_key is not valid base64")
			}
			if len(raw) != 32 {
				return fmt.Errorf("key_provider.master_key decodes to %d bytes, want 32", len(raw))
			}
		}
	default:
		return fmt.Errorf("key_provider.backend %q is not one of kms, local", cfg.Backend)
	}
	return nil
}
