// Package backend talks to the service that authenticates administrators and
// computes their permission sets.
package backend

import (
	"context"

	"admin-portal/internal/rbac"
	"admin-portal/internal/session"
)

const (
	PathLogin       = "/api/auth/login"
	PathPermissions = "/api/session/permissions"
)

// Authenticator exchanges credentials for an access token
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// PermissionSource returns the complete permission set of a principal
type PermissionSource interface {
	FetchPermissions(ctx context.Context, id session.Identity) (rbac.PermissionSet, error)
}

// PermissionRefresher fetches from the authority, skipping any cached copy
type PermissionRefresher interface {
	RefreshPermissions(ctx context.Context, id session.Identity) (rbac.PermissionSet, error)
}

// Backend is both halves of the collaborator
type Backend interface {
	Authenticator
	PermissionSource
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}
