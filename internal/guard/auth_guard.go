package guard

import (
	"net/url"
	"strings"
)

const DefaultLoginPath = "/auth/login"

// AuthGuard blocks navigation unless a valid session exists
type AuthGuard struct {
	loginPath string
}

// NewAuthGuard creates an AuthGuard redirecting to loginPath; empty means DefaultLoginPath
func NewAuthGuard(loginPath string) *AuthGuard {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return &AuthGuard{loginPath: loginPath}
}

// LoginPath returns the login entry point
func (g *AuthGuard) LoginPath() string {
	return g.loginPath
}

// Check allows the navigation if session is valid. Otherwise it denies and
// redirects to the login entry point with the requested URL as returnUrl,
// except when the request already targets the login entry point.
func (g *AuthGuard) Check(nav Navigation, session SessionChecker) Decision {
	if session != nil && session.Valid() {
		return Allow()
	}

	d := Decision{Verdict: VerdictDeny, Reason: ReasonUnauthenticated}
	if samePath(nav.Path(), g.loginPath) {
		return d
	}

	d.Redirect = buildRedirect(g.loginPath, url.Values{QueryReturnURL: {nav.URL}})
	return d
}

// samePath compares paths ignoring one trailing slash on either side
func samePath(a, b string) bool {
	return trimTrailingSlash(a) == trimTrailingSlash(b)
}

func trimTrailingSlash(p string) string {
	if len(p) > 1 {
		return strings.TrimSuffix(p, "/")
	}
	return p
}
