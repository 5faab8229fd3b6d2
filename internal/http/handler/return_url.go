package handler

import (
	"net/url"
	"strings"
)

// SafeReturnURL returns raw when it is a local absolute path other than the
// login entry point, and fallback otherwise. Scheme-relative ("//host") and
// backslash forms are refused since browsers treat them as external.
func SafeReturnURL(raw, fallback, loginPath string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return fallback
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") || strings.ContainsAny(raw, "\\\r\n\t") {
		return fallback
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	if u.Path == loginPath {
		return fallback
	}

	return u.RequestURI()
}
