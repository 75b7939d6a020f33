package logger

import (
	"log/slog"
	"strings"

	"github.com/repovault/repovault-go/internal/core/domain"
)

// Key patterns whose string values are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"master_key",
	"auth",
	"bearer",
}

// Keys that commonly carry token material. Values under these keys are
// masked rather than dropped so log lines stay correlatable.
var tokenKeyPatterns = []string{
	"token",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks attributes that carry credential material.
// Token-like values keep head and tail for correlation; everything else
// sensitive is replaced outright.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		keyLower := strings.ToLower(a.Key)

		for _, pattern := range tokenKeyPatterns {
			if strings.Contains(keyLower, pattern) && strVal != "" {
				return slog.String(a.Key, domain.MaskToken(strVal))
			}
		}

		for _, pattern := range sensitiveKeyPatterns {
			if strings.Contains(keyLower, pattern) && strVal != "" {
				return slog.String(a.Key, redactedValue)
			}
		}

		// Catch token material logged under an innocuous key.
		if domain.LooksLikeToken(strVal) {
			return slog.String(a.Key, domain.MaskToken(strVal))
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// IsSensitiveKey reports whether a key name suggests credential content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range append(tokenKeyPatterns, sensitiveKeyPatterns...) {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
