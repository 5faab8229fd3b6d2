package middleware

import (
	"github.com/labstack/echo/v4"
)

const (
	contentSecurityPolicy = "default-src 'self'; " +
		"script-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; " +
		"connect-src 'self'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'"
	strictTransportSecurity = "max-age=31536000; includeSubDomains"
	permissionsPolicy       = "geolocation=(), microphone=(), camera=(), payment=(), usb=()"
)

// SecurityHeaders sets the browser hardening headers of the admin portal.
// HSTS is only sent when the portal is served over TLS (secure cookies).
func SecurityHeaders(tls bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			if tls {
				h.Set("Strict-Transport-Security", strictTransportSecurity)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "same-origin")
			h.Set("Permissions-Policy", permissionsPolicy)
			// Authorization outcomes depend on the session; never cache them
			h.Set("Cache-Control", "no-store")
			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}
