package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"admin-portal/pkg/token"

	"github.com/labstack/echo/v4"
)

const (
	csrfTokenLength = 32
	// CSRFHeaderName carries the token on state-changing requests and on the
	// responses that hand it out
	CSRFHeaderName      = "X-CSRF-Token"
	csrfFormField       = "csrf_token"
	csrfCleanupInterval = 15 * time.Minute
)

type csrfToken struct {
	token     string
	expiresAt time.Time
}

// CSRFMiddleware binds an anti-forgery token to each session. Unsafe requests
// made with a session cookie must echo the token.
type CSRFMiddleware struct {
	tokens  sync.Map // session id -> *csrfToken
	ttl     time.Duration
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewCSRFMiddleware creates the middleware and starts its cleanup loop
func NewCSRFMiddleware(ctx context.Context, ttl time.Duration) *CSRFMiddleware {
	cleanupCtx, cancel := context.WithCancel(ctx)
	m := &CSRFMiddleware{
		ttl:     ttl,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}

	go m.cleanupLoop(cleanupCtx)

	return m
}

// Stop ends the cleanup goroutine
func (m *CSRFMiddleware) Stop() {
	m.cancel()
	<-m.stopped
}

func (m *CSRFMiddleware) cleanupLoop(ctx context.Context) {
	defer close(m.stopped)

	ticker := time.NewTicker(csrfCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpiredTokens()
		}
	}
}

// GetOrCreateToken returns the live token of sessionID, minting one if needed
func (m *CSRFMiddleware) GetOrCreateToken(sessionID string) (string, error) {
	if raw, ok := m.tokens.Load(sessionID); ok {
		if t := raw.(*csrfToken); time.Now().Before(t.expiresAt) {
			return t.token, nil
		}
	}

	value, err := token.URLSafe(csrfTokenLength)
	if err != nil {
		return "", err
	}

	m.tokens.Store(sessionID, &csrfToken{token: value, expiresAt: time.Now().Add(m.ttl)})
	return value, nil
}

// Revoke forgets the token of an ended session
func (m *CSRFMiddleware) Revoke(sessionID string) {
	m.tokens.Delete(sessionID)
}

// Middleware rejects unsafe requests whose session has no matching token.
// Requests without a session (such as the login form post) pass through.
func (m *CSRFMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			sess := CurrentSession(c)
			if sess == nil {
				return next(c)
			}

			raw, ok := m.tokens.Load(sess.ID)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "CSRF token not found")
			}
			expected := raw.(*csrfToken)
			if time.Now().After(expected.expiresAt) {
				return echo.NewHTTPError(http.StatusForbidden, "CSRF token expired")
			}

			provided := c.Request().Header.Get(CSRFHeaderName)
			if provided == "" {
				provided = c.FormValue(csrfFormField)
			}
			if provided == "" {
				return echo.NewHTTPError(http.StatusForbidden, "CSRF token required")
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(expected.token)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}

			return next(c)
		}
	}
}

// CleanupExpiredTokens removes expired tokens
func (m *CSRFMiddleware) CleanupExpiredTokens() {
	now := time.Now()
	m.tokens.Range(func(key, value any) bool {
		if now.After(value.(*csrfToken).expiresAt) {
			m.tokens.Delete(key)
		}
		return true
	})
}
