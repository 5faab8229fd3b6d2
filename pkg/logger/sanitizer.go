package logger

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	passwordPattern = regexp.MustCompile(`(?i)(password|passwd|pwd)([\s:=]+)[^\s&,]+`)
	tokenPattern    = regexp.MustCompile(`(?i)(token|jwt|bearer|session)([\s:=]+)[^\s&,]+`)
	secretPattern   = regexp.MustCompile(`(?i)(secret|private[_-]?key)([\s:=]+)[^\s&,]+`)
	redisURLPattern = regexp.MustCompile(`(redis(?:s)?://[^:/\s]*:)[^@\s]+@`)
)

const redactedPlaceholder = "[REDACTED]"

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"token", "jwt", "bearer", "cookie", "session",
	"secret", "private_key", "private-key",
}

// SanitizeLogMessage redacts credentials, bearer tokens and connection secrets
func SanitizeLogMessage(message string) string {
	message = passwordPattern.ReplaceAllString(message, "${1}${2}"+redactedPlaceholder)
	message = tokenPattern.ReplaceAllString(message, "${1}${2}"+redactedPlaceholder)
	message = secretPattern.ReplaceAllString(message, "${1}${2}"+redactedPlaceholder)
	message = redisURLPattern.ReplaceAllString(message, "${1}"+redactedPlaceholder+"@")
	return message
}

// IsSensitiveKey reports whether a field name looks like it holds a credential
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// SanitizeMap replaces the values of sensitive keys
func SanitizeMap(data map[string]any) map[string]any {
	sanitized := make(map[string]any, len(data))
	for k, v := range data {
		if IsSensitiveKey(k) {
			sanitized[k] = redactedPlaceholder
			continue
		}
		sanitized[k] = v
	}
	return sanitized
}

// SafeError returns an error field whose message has been sanitised
func SafeError(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.String("error", SanitizeLogMessage(err.Error()))
}
