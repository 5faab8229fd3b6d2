package handler

import (
	"context"
	"time"

	"admin-portal/internal/session"
)

// Consumer-side interfaces defined by handlers
// Each interface contains only the methods needed by the specific handler

// AuthHandler interfaces
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type TokenVerifier interface {
	Verify(token string) (session.Identity, time.Time, error)
}

type SessionStore interface {
	Create(id session.Identity, tokenExpiry time.Time) *session.Session
	Delete(id string) bool
}

type PermissionLoader interface {
	Load(sess *session.Session)
}

type PermissionInvalidator interface {
	Invalidate(ctx context.Context, subject string) error
}

type CSRFTokenManager interface {
	GetOrCreateToken(sessionID string) (string, error)
	Revoke(sessionID string)
}

// HealthHandler interfaces
type Pinger interface {
	Ping(ctx context.Context) error
}
