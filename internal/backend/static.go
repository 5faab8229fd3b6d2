package backend

import (
	"context"
	"fmt"
	"strings"

	"admin-portal/internal/rbac"
	"admin-portal/internal/rbac/presets"
	"admin-portal/internal/session"
	apperrors "admin-portal/pkg/errors"
	"admin-portal/pkg/password"
	"admin-portal/pkg/validator"
)

const (
	staticUserSeparator  = ","
	staticFieldSeparator = ":"
	staticFieldCount     = 3

	// bcrypt (cost 12) of a throwaway value; unknown users still pay for a comparison
	dummyBcryptHash = "$2a$12$dWR5CQpS4zNHLavLSIr4o.P6QDQEUJKv7mJ7WekUHHqyRSRMJzH0S"
)

// StaticUser is a development account resolved against the built-in role presets
type StaticUser struct {
	Username     string
	PasswordHash string
	Role         string
}

// Static authenticates a fixed set of users and serves their role preset.
// It stands in for the backend when no BACKEND_URL is configured.
type Static struct {
	users  map[string]StaticUser
	tokens *session.TokenService
}

func NewStatic(users []StaticUser, tokens *session.TokenService) *Static {
	byName := make(map[string]StaticUser, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &Static{users: byName, tokens: tokens}
}

// ParseStaticUsers parses "name:bcrypt-hash:role" entries separated by commas
func ParseStaticUsers(spec string) ([]StaticUser, error) {
	var users []StaticUser
	for _, entry := range strings.Split(spec, staticUserSeparator) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Split(entry, staticFieldSeparator)
		if len(fields) != staticFieldCount || fields[0] == "" || fields[1] == "" {
			return nil, fmt.Errorf("%w: static user entry %d is not name:hash:role", apperrors.ErrInvalidInput, len(users)+1)
		}
		if err := validator.Username(fields[0]); err != nil {
			return nil, fmt.Errorf("%w: static user entry %d: %v", apperrors.ErrInvalidInput, len(users)+1, err)
		}
		if !password.IsHash(fields[1]) {
			return nil, fmt.Errorf("%w: static user %q: password is not a bcrypt hash", apperrors.ErrInvalidInput, fields[0])
		}
		if _, ok := presets.ByRole(fields[2]); !ok {
			return nil, fmt.Errorf("%w: static user %q has unknown role %q", apperrors.ErrInvalidInput, fields[0], fields[2])
		}
		users = append(users, StaticUser{Username: fields[0], PasswordHash: fields[1], Role: fields[2]})
	}
	return users, nil
}

func (s *Static) Login(_ context.Context, username, pass string) (string, error) {
	u, ok := s.users[username]
	if !ok {
		password.Verify(pass, dummyBcryptHash)
		return "", apperrors.InvalidCredentials()
	}
	if !password.Verify(pass, u.PasswordHash) {
		return "", apperrors.InvalidCredentials()
	}
	return s.tokens.Issue(u.Username, u.Role)
}

func (s *Static) FetchPermissions(_ context.Context, id session.Identity) (rbac.PermissionSet, error) {
	set, ok := presets.ByRole(id.Role)
	if !ok {
		return rbac.EmptyPermissionSet(), apperrors.Forbidden(fmt.Sprintf("no preset for role %q", id.Role))
	}
	return set, nil
}
