package middleware

import (
	"admin-portal/internal/session"

	"github.com/labstack/echo/v4"
)

// ContextKeySession is the echo context key holding the current *session.Session
const ContextKeySession = "session"

// SessionLoader resolves the session cookie. Requests without a live session
// proceed with no session on the context; the checkpoints decide what that means.
func SessionLoader(store *session.Store, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
				if sess, ok := store.Get(cookie.Value); ok {
					c.Set(ContextKeySession, sess)
				}
			}
			return next(c)
		}
	}
}

// CurrentSession returns the request's session, or nil
func CurrentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(ContextKeySession).(*session.Session)
	return sess
}
