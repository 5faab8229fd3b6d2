package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"admin-portal/internal/guard"
	"admin-portal/internal/metrics"
	"admin-portal/internal/rbac"
	"admin-portal/internal/session"
	apperrors "admin-portal/pkg/errors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "admin_session"

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func newSession(t *testing.T, store *session.Store, set *rbac.PermissionSet) *session.Session {
	t.Helper()
	sess := store.Create(session.Identity{Subject: "ana", Role: "VIEWER", Token: "tok"}, time.Now().Add(time.Hour))
	if set != nil {
		require.True(t, sess.InstallPermissions(*set))
	}
	return sess
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	h := RequestID()(okHandler)

	t.Run("keeps well formed inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, h(c))
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
		assert.Equal(t, "abc-123", GetRequestID(c))
	})

	t.Run("replaces malformed inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "bad id\nwith newline")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, h(c))
		id := rec.Header().Get(RequestIDHeader)
		assert.NotEqual(t, "bad id\nwith newline", id)
		assert.Len(t, id, 36)
	})
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	require.NoError(t, SecurityHeaders(false)(okHandler)(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	require.NoError(t, SecurityHeaders(true)(okHandler)(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSessionLoader(t *testing.T) {
	e := echo.New()
	store := session.NewStore(time.Hour)
	sess := newSession(t, store, nil)

	var seen *session.Session
	h := SessionLoader(store, testCookie)(func(c echo.Context) error {
		seen = CurrentSession(c)
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: sess.ID})
	require.NoError(t, h(e.NewContext(req, httptest.NewRecorder())))
	assert.Same(t, sess, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "unknown"})
	require.NoError(t, h(e.NewContext(req, httptest.NewRecorder())))
	assert.Nil(t, seen)

	require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())))
	assert.Nil(t, seen)
}

func TestCheckpointRequire(t *testing.T) {
	e := echo.New()
	store := session.NewStore(time.Hour)
	m := metrics.New(prometheus.NewRegistry())
	cp := NewCheckpoint(guard.NewChain(guard.NewAuthGuard(""), guard.NewPermissionGuard("")), m, nil)

	create := rbac.NewPermission(rbac.ResourceBranches, rbac.ActionCreate)
	target := guard.Target{Requirement: rbac.Single(create)}
	h := cp.Require("branches.add", target)(okHandler)

	serve := func(sess *session.Session, url string, h echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if sess != nil {
			c.Set(ContextKeySession, sess)
		}
		return rec, h(c)
	}

	t.Run("no session redirects to login", func(t *testing.T) {
		rec, err := serve(nil, "/branch/add", h)
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/auth/login?returnUrl=%2Fbranch%2Fadd", rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("missing permission redirects to forbidden", func(t *testing.T) {
		rec, err := serve(newSession(t, store, nil), "/branch/add", h)
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "/forbidden?")
		assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "requiredPermissions=BRANCHES%3ACREATE")
	})

	t.Run("held permission proceeds", func(t *testing.T) {
		set := rbac.PermissionSetOf(create)
		rec, err := serve(newSession(t, store, &set), "/branch/add", h)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("login path without session fails without redirect", func(t *testing.T) {
		loginGuarded := cp.Require("login", guard.Target{})(okHandler)
		_, err := serve(nil, "/auth/login", loginGuarded)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.DecisionsTotal.WithLabelValues(metrics.CheckpointPermission, "allow", "")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DecisionsTotal.WithLabelValues(metrics.CheckpointPermission, "deny", guard.ReasonInsufficientPermissions)))
}

func TestCSRFMiddleware(t *testing.T) {
	e := echo.New()
	store := session.NewStore(time.Hour)
	sess := newSession(t, store, nil)

	csrf := NewCSRFMiddleware(context.Background(), time.Hour)
	t.Cleanup(csrf.Stop)
	h := csrf.Middleware()(okHandler)

	serve := func(method string, withSession bool, token string) error {
		req := httptest.NewRequest(method, "/auth/logout", nil)
		if token != "" {
			req.Header.Set(CSRFHeaderName, token)
		}
		c := e.NewContext(req, httptest.NewRecorder())
		if withSession {
			c.Set(ContextKeySession, sess)
		}
		return h(c)
	}

	assert.NoError(t, serve(http.MethodGet, true, ""))
	assert.NoError(t, serve(http.MethodPost, false, ""), "requests without a session pass")

	var he *echo.HTTPError
	require.ErrorAs(t, serve(http.MethodPost, true, ""), &he)
	assert.Equal(t, http.StatusForbidden, he.Code)

	token, err := csrf.GetOrCreateToken(sess.ID)
	require.NoError(t, err)
	again, err := csrf.GetOrCreateToken(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	require.ErrorAs(t, serve(http.MethodPost, true, "wrong"), &he)
	assert.NoError(t, serve(http.MethodPost, true, token))

	csrf.Revoke(sess.ID)
	require.ErrorAs(t, serve(http.MethodPost, true, token), &he)
}
