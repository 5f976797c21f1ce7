package logging

import (
	"net/url"
	"regexp"
	"strings"
)

// Query parameter names whose values are never logged.
var sensitiveParams = []string{
	"token",
	"key",
	"secret",
	"password",
	"passwd",
	"auth",
	"signature",
	"sig",
	"session",
	"cookie",
	"credential",
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._-]{20,})`),
	regexp.MustCompile(`(?i)(key|token|secret|password|auth)[=:]["']?([a-zA-Z0-9+/=_-]{32,})["']?`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces token-looking substrings in free text.
func Redact(s string) string {
	result := s
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// RedactURL strips userinfo and masks sensitive query values so a
// submitted download URL can be logged. Unparseable input falls back to
// Redact.
func RedactURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return Redact(raw)
	}
	if u.User != nil {
		u.User = url.User(RedactedValue)
	}
	if u.RawQuery != "" {
		q := u.Query()
		changed := false
		for name := range q {
			if IsSensitiveParam(name) {
				q.Set(name, RedactedValue)
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}
	return u.String()
}

// IsSensitiveParam checks if a query parameter name is considered sensitive.
func IsSensitiveParam(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveParams {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}
