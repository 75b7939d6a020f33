package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
// Used when logging the effective configuration at startup.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.KeyProvider.MasterKey != "" {
		sanitized.KeyProvider.MasterKey = maskSecret(sanitized.KeyProvider.MasterKey)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
