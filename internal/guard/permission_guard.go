package guard

import (
	"net/url"

	"admin-portal/internal/rbac"
)

const DefaultForbiddenPath = "/forbidden"

// PermissionGuard enforces a route's declared permission requirement.
// It assumes AuthGuard has already accepted the session.
type PermissionGuard struct {
	forbiddenPath string
}

// NewPermissionGuard creates a PermissionGuard; empty forbiddenPath means DefaultForbiddenPath
func NewPermissionGuard(forbiddenPath string) *PermissionGuard {
	if forbiddenPath == "" {
		forbiddenPath = DefaultForbiddenPath
	}
	return &PermissionGuard{forbiddenPath: forbiddenPath}
}

// ForbiddenPath returns the default forbidden entry point
func (g *PermissionGuard) ForbiddenPath() string {
	return g.forbiddenPath
}

// Check evaluates target's requirement against roles.
//
// A route without a requirement is allowed regardless of roles, while a
// missing permission set denies every declared requirement.
func (g *PermissionGuard) Check(nav Navigation, target Target, roles rbac.PermissionEvaluator) Decision {
	perms, requireAll := target.Requirement.Flatten()
	if len(perms) == 0 {
		return Decision{Verdict: VerdictAllow, Unchecked: true}
	}

	var ok bool
	if roles != nil {
		if requireAll {
			ok = roles.HasAllPermissions(perms)
		} else {
			ok = roles.HasAnyPermission(perms)
		}
	}
	if ok {
		return Allow()
	}

	required := rbac.Tokens(perms)
	d := Decision{
		Verdict:  VerdictDeny,
		Reason:   ReasonInsufficientPermissions,
		Required: required,
	}

	redirectTo := target.RedirectTo
	if redirectTo == "" {
		redirectTo = g.forbiddenPath
	}
	d.Redirect = buildRedirect(redirectTo, url.Values{
		QueryReturnURL:           {nav.URL},
		QueryReason:              {d.Reason},
		QueryRequiredPermissions: {d.RequiredPermissions()},
	})

	return d
}
