package logger

import (
	"log/slog"
	"strings"
)

// bearerPrefix is the Authorization scheme prefix.
const bearerPrefix = "Bearer "

// jwtPrefix is the base64url encoding of `{"` that starts every JWT header.
const jwtPrefix = "eyJ"

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"bearer",
	"cookie",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks attribute values that carry credentials.
// Shape-based masking takes priority over key-based redaction so a
// masked hint survives under keys such as "authorization".
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if IsSensitiveValue(strVal) {
			return slog.String(a.Key, RedactString(strVal))
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
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

// maskValue keeps prefix plus the first and last three characters of the
// remaining body. Short bodies collapse to prefix + "***".
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks a bearer header value or a JWT. Other values are
// returned unchanged.
func RedactString(value string) string {
	if strings.HasPrefix(value, bearerPrefix) {
		return bearerPrefix + maskValue(value[len(bearerPrefix):], "")
	}
	if looksLikeJWT(value) {
		return maskValue(value, jwtPrefix)
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether a value is a bearer header or a JWT.
func IsSensitiveValue(value string) bool {
	return strings.HasPrefix(value, bearerPrefix) || looksLikeJWT(value)
}

func looksLikeJWT(value string) bool {
	return strings.HasPrefix(value, jwtPrefix) && strings.Count(value, ".") == 2
}
