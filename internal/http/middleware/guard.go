package middleware

import (
	"net/http"

	"admin-portal/internal/audit"
	"admin-portal/internal/guard"
	"admin-portal/internal/metrics"
	apperrors "admin-portal/pkg/errors"

	"github.com/labstack/echo/v4"
)

const msgAuthenticationRequired = "authentication required"

// Checkpoint adapts the guard chain to echo routes
type Checkpoint struct {
	chain   *guard.Chain
	metrics *metrics.Metrics
	audit   *audit.Logger
}

// NewCheckpoint creates a Checkpoint; metrics and audit may be nil
func NewCheckpoint(chain *guard.Chain, m *metrics.Metrics, auditLogger *audit.Logger) *Checkpoint {
	return &Checkpoint{chain: chain, metrics: m, audit: auditLogger}
}

// Chain returns the underlying guard chain
func (cp *Checkpoint) Chain() *guard.Chain {
	return cp.chain
}

// Require gates the handler behind the session and permission checkpoints.
// Denials redirect with 302 when the decision carries a redirect and fail
// with 401 when it does not.
func (cp *Checkpoint) Require(route string, target guard.Target) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var principal guard.Principal
			actorID := ""
			if sess := CurrentSession(c); sess != nil {
				principal = sess
				actorID = sess.Subject
			}

			nav := guard.Navigation{URL: c.Request().URL.RequestURI()}
			out := cp.chain.Evaluate(nav, target, principal)

			cp.metrics.ObserveOutcome(route, out)
			if cp.audit != nil {
				cp.audit.LogOutcome(c, actorID, route, out)
			}

			if out.Decision.Allowed() {
				return next(c)
			}
			if out.Decision.Redirect != nil {
				return c.Redirect(http.StatusFound, out.Decision.Redirect.URL())
			}
			return apperrors.Unauthorized(msgAuthenticationRequired)
		}
	}
}
