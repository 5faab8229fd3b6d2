package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"strings"
	"time"

	"admin-portal/internal/audit"
	"admin-portal/internal/config"
	"admin-portal/internal/guard"
	"admin-portal/internal/http/handler"
	"admin-portal/internal/http/middleware"
	"admin-portal/internal/metrics"
	"admin-portal/internal/rbac"
	"admin-portal/internal/routes"
	"admin-portal/internal/session"
	"admin-portal/pkg/profiling"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	requestBodyLimit = "1M"
	homePath         = "/dashboard"

	pathLogout         = "/auth/logout"
	pathMyPermissions  = "/auth/me/permissions"
	pathHealth         = "/health"
	pathMetrics        = "/metrics"
	routeNameProfiling = "debug.pprof"
)

type ServerDependencies struct {
	// Context bounds background work such as limiter sweeps; nil disables it
	Context     context.Context
	Config      *config.Config
	Logger      *zap.Logger
	Routes      *routes.Table
	Checkpoint  *middleware.Checkpoint
	Sessions    *session.Store
	Tokens      handler.TokenVerifier
	Backend     handler.Authenticator
	Loader      handler.PermissionLoader
	Invalidator handler.PermissionInvalidator
	Cache       handler.Pinger
	Metrics     *metrics.Metrics
	Audit       *audit.Logger
	CSRF        *middleware.CSRFMiddleware
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

// NewServer wires the entry points and mounts every route of the table
// behind the checkpoint chain.
func NewServer(deps *ServerDependencies) (*Server, error) {
	cfg := deps.Config
	log := deps.Logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = NewErrorHandler(log)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders(cfg.Session.CookieSecure))
	e.Use(requestLogger(log))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(requestBodyLimit))
	e.Use(deps.Metrics.Middleware())
	e.Use(middleware.SessionLoader(deps.Sessions, cfg.Session.CookieName))

	globalRateLimiter := middleware.NewGlobalRateLimiter()
	e.Use(globalRateLimiter.Middleware())

	// Strict rate limiting for credential submission
	strictRateLimiter := middleware.NewStrictRateLimiter()

	if deps.Context != nil {
		globalRateLimiter.Start(deps.Context)
		strictRateLimiter.Start(deps.Context)
	}

	authHandler := handler.NewAuthHandler(handler.AuthDependencies{
		Backend:     deps.Backend,
		Tokens:      deps.Tokens,
		Sessions:    deps.Sessions,
		Loader:      deps.Loader,
		Invalidator: deps.Invalidator,
		CSRF:        deps.CSRF,
		Audit:       deps.Audit,
		Logger:      log,
	}, handler.AuthConfig{
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		LoginPath:    cfg.Routes.LoginPath,
		HomePath:     homePath,
	})
	forbiddenHandler := handler.NewForbiddenHandler(cfg.Routes.LoginPath)
	healthHandler := handler.NewHealthHandler(deps.Cache, log)

	reserved := map[string]bool{
		cfg.Routes.LoginPath:     true,
		cfg.Routes.ForbiddenPath: true,
		pathLogout:               true,
		pathMyPermissions:        true,
		pathHealth:               true,
		pathMetrics:              true,
	}

	e.GET(cfg.Routes.LoginPath, authHandler.LoginPage)
	e.POST(cfg.Routes.LoginPath, authHandler.Login, strictRateLimiter.Middleware())
	e.POST(pathLogout, authHandler.Logout, deps.CSRF.Middleware())
	e.GET(pathMyPermissions, authHandler.MyPermissions)
	e.GET(cfg.Routes.ForbiddenPath, forbiddenHandler.Show)
	e.GET(pathHealth, healthHandler.Check)
	e.GET(pathMetrics, echo.WrapHandler(deps.Metrics.Handler()))

	if cfg.Server.ProfilingEnabled {
		target := guard.Target{Requirement: rbac.Single(rbac.NewPermission(rbac.ResourceRoles, rbac.ActionManage))}
		profiling.RegisterPprofRoutes(e.Group(profiling.PathPrefix, deps.Checkpoint.Require(routeNameProfiling, target)))
		log.Info("profiling endpoints enabled", zap.String("prefix", profiling.PathPrefix))
	}

	for _, r := range deps.Routes.Routes() {
		if reserved[r.Path] || strings.HasPrefix(r.Path, profiling.PathPrefix) {
			return nil, fmt.Errorf("%w: route %q uses reserved path %q", routes.ErrInvalidRoute, r.Name, r.Path)
		}
		e.GET(r.Path, handler.Navigate(r), deps.Checkpoint.Require(r.Name, r.Target()))
	}

	log.Info("routes mounted", zap.Int("guarded", deps.Routes.Len()))

	return &Server{
		echo: e,
		deps: deps,
	}, nil
}

// requestLogger logs one line per request through zap. Only the path is
// logged; query strings may carry return URLs.
func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.String("route", v.RoutePath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

// Handler exposes the router, for tests
func (s *Server) Handler() stdhttp.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ShutdownTimeout returns the configured grace period for Shutdown
func (s *Server) ShutdownTimeout() time.Duration {
	return s.deps.Config.Server.ShutdownTimeout
}
