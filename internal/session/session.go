// Package session tracks authenticated principals and the permission state
// each of them owns for the lifetime of the session.
package session

import (
	"sync"
	"time"

	"admin-portal/internal/rbac"
)

// Session is one authenticated principal. Its RoleService is created empty at
// login, filled by the asynchronous permission fetch and cleared at logout.
type Session struct {
	ID        string
	Subject   string
	Role      string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time

	roles *rbac.RoleService
	now   func() time.Time

	mu    sync.Mutex
	ended bool
}

// Valid reports whether the session is active and not expired. Safe on a nil receiver.
func (s *Session) Valid() bool {
	if s == nil || s.Ended() {
		return false
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return now().Before(s.ExpiresAt)
}

// Permissions returns the session's permission evaluator
func (s *Session) Permissions() rbac.PermissionEvaluator {
	if s == nil {
		return nil
	}
	return s.roles
}

// Roles returns the mutable role service; only the loader and logout touch it
func (s *Session) Roles() *rbac.RoleService {
	if s == nil {
		return nil
	}
	return s.roles
}

// InstallPermissions replaces the session's permission set unless the session
// has already ended. It reports whether the set was installed.
func (s *Session) InstallPermissions(set rbac.PermissionSet) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.roles.Replace(set)
	return true
}

// Ended reports whether the session was logged out or swept
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *Session) end() {
	s.mu.Lock()
	s.ended = true
	s.roles.Clear()
	s.mu.Unlock()
}
