// Package guard implements the route checkpoints that gate administrative
// navigation: session validity first, then resource/action permissions.
package guard

import (
	"net/url"
	"strings"
)

// Verdict is the coarse result of a checkpoint
type Verdict int

const (
	VerdictAllow Verdict = iota
	VerdictDeny
)

func (v Verdict) String() string {
	if v == VerdictAllow {
		return "allow"
	}
	return "deny"
}

const (
	ReasonUnauthenticated         = "unauthenticated"
	ReasonInsufficientPermissions = "insufficient_permissions"
)

const (
	QueryReturnURL           = "returnUrl"
	QueryReason              = "reason"
	QueryRequiredPermissions = "requiredPermissions"

	requiredPermissionsSeparator = ","
)

// Redirect is a navigation instruction attached to a denial
type Redirect struct {
	Path  string
	Query url.Values
}

// URL renders the redirect as a path with an encoded query string
func (r Redirect) URL() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// Decision is the outcome of a checkpoint. A denial never panics or errors;
// it carries the reason, the permissions that were required and, unless the
// principal is already at the target entry point, where to go instead.
type Decision struct {
	Verdict  Verdict
	Reason   string
	Required []string
	Redirect *Redirect
	// Unchecked marks an allow granted because the route declared no requirement.
	Unchecked bool
}

// Allow returns an allowing decision
func Allow() Decision {
	return Decision{Verdict: VerdictAllow}
}

// Allowed reports whether navigation may proceed
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictAllow
}

// RequiredPermissions returns the comma-joined required tokens
func (d Decision) RequiredPermissions() string {
	return strings.Join(d.Required, requiredPermissionsSeparator)
}

// SplitRequiredPermissions reverses RequiredPermissions for display collaborators
func SplitRequiredPermissions(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, requiredPermissionsSeparator)
}

// buildRedirect resolves target (which may carry its own query) and merges params into it
func buildRedirect(target string, params url.Values) *Redirect {
	path := target
	query := url.Values{}
	if u, err := url.Parse(target); err == nil {
		path = u.Path
		for k, vs := range u.Query() {
			query[k] = append(query[k], vs...)
		}
	}
	for k, vs := range params {
		query[k] = vs
	}
	return &Redirect{Path: path, Query: query}
}
