package guard

import (
	"net/url"

	"admin-portal/internal/rbac"
)

// Navigation is one attempt to enter a route
type Navigation struct {
	// URL is the originally requested location, path plus optional query
	URL string
}

// Path returns the path component of the requested URL
func (n Navigation) Path() string {
	u, err := url.Parse(n.URL)
	if err != nil {
		return n.URL
	}
	return u.Path
}

// Target is the static authorization metadata of a route
type Target struct {
	Requirement rbac.Requirement
	// RedirectTo overrides the default forbidden entry point when set
	RedirectTo string
}

// SessionChecker reports whether an active, non-expired session exists.
// Implementations must answer from cached state without I/O.
type SessionChecker interface {
	Valid() bool
}

// Principal is the session as seen by the full checkpoint chain
type Principal interface {
	SessionChecker
	Permissions() rbac.PermissionEvaluator
}
