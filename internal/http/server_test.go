package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"admin-portal/internal/audit"
	"admin-portal/internal/backend"
	"admin-portal/internal/config"
	"admin-portal/internal/guard"
	"admin-portal/internal/http/handler"
	"admin-portal/internal/http/middleware"
	"admin-portal/internal/infra/cache"
	"admin-portal/internal/metrics"
	"admin-portal/internal/rbac/presets"
	"admin-portal/internal/roles"
	"admin-portal/internal/routes"
	"admin-portal/internal/session"
	"admin-portal/pkg/password"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "q9Zt4LmXv2Rb7NcYw1Ks8HdPf3Gj6TeU"
	testCookie   = "admin_session"
	testPassword = "correct horse"
)

type portal struct {
	server   *Server
	loader   *roles.Loader
	sessions *session.Store
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:             "0",
			ReadTimeout:      5 * time.Second,
			WriteTimeout:     5 * time.Second,
			ShutdownTimeout:  time.Second,
			ProfilingEnabled: true,
		},
		JWT:     config.JWTConfig{Secret: testSecret},
		Session: config.SessionConfig{CookieName: testCookie, TTL: time.Hour, FetchTimeout: time.Second},
		Cache:   config.CacheConfig{TTL: time.Minute},
		Routes:  config.RoutesConfig{LoginPath: "/auth/login", ForbiddenPath: "/forbidden"},
		Log:     config.LogConfig{Level: "info", Format: "json"},
	}
}

func newPortal(t *testing.T, table *routes.Table) (*portal, error) {
	t.Helper()
	cfg := testConfig()
	log := zap.NewNop()

	hash, err := password.HashWithCost(testPassword, bcrypt.MinCost)
	require.NoError(t, err)

	tokens := session.NewTokenService(testSecret, time.Hour)
	static := backend.NewStatic([]backend.StaticUser{
		{Username: "vera", PasswordHash: hash, Role: presets.RoleViewer},
		{Username: "bruno", PasswordHash: hash, Role: presets.RoleBranchManager},
		{Username: "sam", PasswordHash: hash, Role: presets.RoleSuperAdmin},
	}, tokens)

	m := metrics.New(prometheus.NewRegistry())
	auditLogger := audit.NewLogger(log)
	store := cache.NewMemoryCache()
	permissions := cache.NewPermissionCache(static, store, cfg.Cache.TTL, log, m)

	loader := roles.NewLoader(context.Background(), permissions, cfg.Session.FetchTimeout, log, auditLogger, m)
	t.Cleanup(loader.Close)

	csrf := middleware.NewCSRFMiddleware(context.Background(), time.Hour)
	t.Cleanup(csrf.Stop)

	sessions := session.NewStore(cfg.Session.TTL)
	chain := guard.NewChain(guard.NewAuthGuard(cfg.Routes.LoginPath), guard.NewPermissionGuard(cfg.Routes.ForbiddenPath))

	srv, err := NewServer(&ServerDependencies{
		Config:      cfg,
		Logger:      log,
		Routes:      table,
		Checkpoint:  middleware.NewCheckpoint(chain, m, auditLogger),
		Sessions:    sessions,
		Tokens:      tokens,
		Backend:     static,
		Loader:      loader,
		Invalidator: permissions,
		Cache:       store,
		Metrics:     m,
		Audit:       auditLogger,
		CSRF:        csrf,
	})
	if err != nil {
		return nil, err
	}
	return &portal{server: srv, loader: loader, sessions: sessions}, nil
}

func defaultPortal(t *testing.T) *portal {
	t.Helper()
	table, err := routes.Load("")
	require.NoError(t, err)
	p, err := newPortal(t, table)
	require.NoError(t, err)
	return p
}

type client struct {
	t      *testing.T
	p      *portal
	cookie *stdhttp.Cookie
	csrf   string
}

func (c *client) do(method, target, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *stdhttp.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.csrf != "" {
		req.Header.Set(middleware.CSRFHeaderName, c.csrf)
	}
	rec := httptest.NewRecorder()
	c.p.server.Handler().ServeHTTP(rec, req)
	return rec
}

// login signs in and waits for the background permission fetch
func (c *client) login(username, returnURL string) *httptest.ResponseRecorder {
	c.t.Helper()
	rec := c.do(stdhttp.MethodPost, "/auth/login", `{"username":"`+username+`","password":"`+testPassword+`","returnUrl":"`+returnURL+`"}`)
	require.Equal(c.t, stdhttp.StatusSeeOther, rec.Code, rec.Body.String())
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == testCookie {
			c.cookie = ck
		}
	}
	require.NotNil(c.t, c.cookie)
	c.csrf = rec.Header().Get(middleware.CSRFHeaderName)
	c.p.loader.Wait()
	return rec
}

func TestAnonymousNavigationRedirectsToLogin(t *testing.T) {
	p := defaultPortal(t)
	c := &client{t: t, p: p}

	rec := c.do(stdhttp.MethodGet, "/branch/add", "")
	assert.Equal(t, stdhttp.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?returnUrl=%2Fbranch%2Fadd", rec.Header().Get(echo.HeaderLocation))

	rec = c.do(stdhttp.MethodGet, "/auth/login?returnUrl=%2Fbranch%2Fadd", "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code, "the login page is never guarded")
	var page handler.LoginPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "/branch/add", page.ReturnURL)
}

func TestViewerJourney(t *testing.T) {
	p := defaultPortal(t)
	c := &client{t: t, p: p}

	rec := c.login("vera", "/branch/add")
	assert.Equal(t, "/branch/add", rec.Header().Get(echo.HeaderLocation))

	rec = c.do(stdhttp.MethodGet, "/branch/add", "")
	require.Equal(t, stdhttp.StatusFound, rec.Code)
	location := rec.Header().Get(echo.HeaderLocation)
	assert.True(t, strings.HasPrefix(location, "/forbidden?"), location)
	assert.Contains(t, location, "requiredPermissions=BRANCHES%3ACREATE")

	rec = c.do(stdhttp.MethodGet, location, "")
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	var denied handler.ForbiddenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &denied))
	assert.Equal(t, []string{"BRANCHES:CREATE"}, denied.RequiredPermissions)
	assert.Equal(t, "/branch/add", denied.ReturnURL)

	rec = c.do(stdhttp.MethodGet, "/branches/12", "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var view handler.RouteView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "branches.view", view.Route)
	assert.Equal(t, "vera", view.Subject)

	assert.Equal(t, stdhttp.StatusOK, c.do(stdhttp.MethodGet, "/profile", "").Code)
	assert.Equal(t, stdhttp.StatusOK, c.do(stdhttp.MethodGet, "/dashboard", "").Code)

	rec = c.do(stdhttp.MethodGet, "/auth/me/permissions", "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var perms handler.PermissionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &perms))
	assert.True(t, perms.Populated)
	assert.Contains(t, perms.Tokens, "EVENTS:READ")
	assert.NotContains(t, perms.Tokens, "USERS:LIST")
}

func TestCustomRedirectTarget(t *testing.T) {
	p := defaultPortal(t)

	// BRANCH_MANAGER reads events and manages members
	bruno := &client{t: t, p: p}
	bruno.login("bruno", "")
	assert.Equal(t, stdhttp.StatusOK, bruno.do(stdhttp.MethodGet, "/events/3/attendance", "").Code)
	assert.Equal(t, stdhttp.StatusOK, bruno.do(stdhttp.MethodGet, "/branch/add", "").Code, "MANAGE implies CREATE")

	rec := bruno.do(stdhttp.MethodGet, "/roles", "")
	require.Equal(t, stdhttp.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), "/forbidden?"))
}

func TestLogoutRequiresCSRFAndEndsSession(t *testing.T) {
	p := defaultPortal(t)
	c := &client{t: t, p: p}
	c.login("vera", "")
	require.Equal(t, 1, p.sessions.Len())

	token := c.csrf
	c.csrf = ""
	assert.Equal(t, stdhttp.StatusForbidden, c.do(stdhttp.MethodPost, "/auth/logout", "").Code)

	c.csrf = token
	rec := c.do(stdhttp.MethodPost, "/auth/logout", "")
	assert.Equal(t, stdhttp.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation))
	assert.Zero(t, p.sessions.Len())

	rec = c.do(stdhttp.MethodGet, "/branches", "")
	assert.Equal(t, stdhttp.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?returnUrl=%2Fbranches", rec.Header().Get(echo.HeaderLocation))
}

func TestInvalidLogin(t *testing.T) {
	p := defaultPortal(t)
	c := &client{t: t, p: p}

	rec := c.do(stdhttp.MethodPost, "/auth/login", `{"username":"vera","password":"wrong"}`)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Zero(t, p.sessions.Len())
}

func TestProfilingRequiresRoleManagement(t *testing.T) {
	p := defaultPortal(t)

	vera := &client{t: t, p: p}
	vera.login("vera", "")
	rec := vera.do(stdhttp.MethodGet, "/debug/pprof/cmdline", "")
	assert.Equal(t, stdhttp.StatusFound, rec.Code)

	sam := &client{t: t, p: p}
	sam.login("sam", "")
	assert.Equal(t, stdhttp.StatusOK, sam.do(stdhttp.MethodGet, "/debug/pprof/cmdline", "").Code)
}

func TestOperationalEndpoints(t *testing.T) {
	p := defaultPortal(t)
	c := &client{t: t, p: p}

	rec := c.do(stdhttp.MethodGet, "/health", "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	c.do(stdhttp.MethodGet, "/members", "")
	rec = c.do(stdhttp.MethodGet, "/metrics", "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin_portal_decisions_total")

	rec = c.do(stdhttp.MethodGet, "/no-such-page", "")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
}

func TestReservedPathsRejected(t *testing.T) {
	for _, path := range []string{"/health", "/auth/logout", "/debug/pprof/heap"} {
		table, err := routes.NewTable([]routes.Route{{Name: "shadow", Path: path}})
		require.NoError(t, err)

		_, err = newPortal(t, table)
		assert.ErrorIs(t, err, routes.ErrInvalidRoute, path)
	}
}
