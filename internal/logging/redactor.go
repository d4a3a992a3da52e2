package logging

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// Key segments whose values are never logged.
var sensitiveSegments = map[string]bool{
	"secret": true, "password": true, "token": true, "key": true, "auth": true,
	"authorization": true, "bearer": true, "credential": true, "cookie": true,
}

// Query parameters that carry credentials in stream and API URLs.
var sensitiveParams = []string{"token", "access_token", "api_key", "apikey", "auth", "signature"}

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	bearerValue     = regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`)
)

// redactor scrubs credentials from log key-value pairs. Values under a
// sensitive key are replaced wholesale; string values elsewhere keep their
// text but lose bearer tokens and credential query parameters.
type redactor struct{}

func newRedactor() *redactor { return &redactor{} }

// redact returns a copy of pairs ([k1, v1, k2, v2, ...]) with credentials removed.
func (r *redactor) redact(pairs []any) []any {
	if len(pairs) == 0 {
		return pairs
	}
	result := make([]any, len(pairs))
	copy(result, pairs)
	for i := 0; i+1 < len(result); i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}
		if isSensitiveKey(key) {
			result[i+1] = redacted
			continue
		}
		if s, ok := result[i+1].(string); ok {
			result[i+1] = scrubValue(s)
		}
	}
	return result
}

// isSensitiveKey matches whole segments only: "api_token" is sensitive,
// "apitoken" and "secretary" are not.
func isSensitiveKey(key string) bool {
	for _, part := range nonAlphanumeric.Split(strings.ToLower(key), -1) {
		if sensitiveSegments[part] {
			return true
		}
	}
	return false
}

func scrubValue(s string) string {
	s = bearerValue.ReplaceAllString(s, "Bearer "+redacted)
	if !strings.Contains(s, "://") || !strings.Contains(s, "?") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || u.RawQuery == "" {
		return s
	}
	q := u.Query()
	changed := false
	for _, p := range sensitiveParams {
		if q.Has(p) {
			q.Set(p, redacted)
			changed = true
		}
	}
	if !changed {
		return s
	}
	u.RawQuery = q.Encode()
	return u.String()
}
