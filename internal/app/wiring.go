package app

import (
	"context"
	"fmt"
	"time"

	"admin-portal/internal/audit"
	"admin-portal/internal/backend"
	"admin-portal/internal/config"
	"admin-portal/internal/guard"
	httpserver "admin-portal/internal/http"
	"admin-portal/internal/http/middleware"
	"admin-portal/internal/infra/cache"
	"admin-portal/internal/metrics"
	"admin-portal/internal/roles"
	"admin-portal/internal/routes"
	"admin-portal/internal/session"
	"admin-portal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const invalidateTimeout = 2 * time.Second

// InitializeService wires up all dependencies and returns a configured Service
func InitializeService(cfg *config.Config, log *zap.Logger) (*Service, error) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{config: cfg, logger: log, ctx: ctx, cancel: cancel}

	// Route declarations are validated before anything else starts
	table, err := routes.Load(cfg.Routes.File)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load route table: %w", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	auditLogger := audit.NewLogger(log)
	tokens := session.NewTokenService(cfg.JWT.Secret, cfg.Session.TTL)

	source, err := buildBackend(cfg, tokens, log)
	if err != nil {
		cancel()
		return nil, err
	}

	store, err := svc.buildCacheStore(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	permissions := cache.NewPermissionCache(source, store, cfg.Cache.TTL, log, m)

	svc.sessions = session.NewStore(cfg.Session.TTL, session.WithExpiryHook(func(sess *session.Session) {
		invalidateCtx, cancelInvalidate := context.WithTimeout(ctx, invalidateTimeout)
		defer cancelInvalidate()
		if err := permissions.Invalidate(invalidateCtx, sess.Subject); err != nil {
			log.Warn("failed to drop permission snapshot of expired session", zap.String("subject", sess.Subject), logger.SafeError(err))
		}
	}))
	svc.loader = roles.NewLoader(ctx, permissions, cfg.Session.FetchTimeout, log.Named("roles"), auditLogger, m)
	svc.csrf = middleware.NewCSRFMiddleware(ctx, cfg.Session.TTL)

	chain := guard.NewChain(guard.NewAuthGuard(cfg.Routes.LoginPath), guard.NewPermissionGuard(cfg.Routes.ForbiddenPath))

	svc.server, err = httpserver.NewServer(&httpserver.ServerDependencies{
		Context:     ctx,
		Config:      cfg,
		Logger:      log,
		Routes:      table,
		Checkpoint:  middleware.NewCheckpoint(chain, m, auditLogger),
		Sessions:    svc.sessions,
		Tokens:      tokens,
		Backend:     source,
		Loader:      svc.loader,
		Invalidator: permissions,
		Cache:       store,
		Metrics:     m,
		Audit:       auditLogger,
		CSRF:        svc.csrf,
	})
	if err != nil {
		svc.release()
		return nil, err
	}

	svc.startBackground()
	return svc, nil
}

// buildBackend selects the remote backend, or the built-in development users
// when no BACKEND_URL is configured.
func buildBackend(cfg *config.Config, tokens *session.TokenService, log *zap.Logger) (backend.Backend, error) {
	if cfg.UsesBackend() {
		log.Info("using remote backend", zap.String("url", cfg.Backend.URL))
		return backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, cfg.Backend.RetryCount, log.Named("backend")), nil
	}

	users, err := backend.ParseStaticUsers(cfg.Backend.DevUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DEV_USERS: %w", err)
	}
	if len(users) == 0 {
		log.Warn("no BACKEND_URL and no DEV_USERS configured; every login will fail")
	} else {
		log.Warn("using built-in development users", zap.Int("users", len(users)))
	}
	return backend.NewStatic(users, tokens), nil
}

// buildCacheStore connects to Redis when REDIS_URL is set and falls back to
// a process-local cache otherwise.
func (s *Service) buildCacheStore(ctx context.Context) (cache.Store, error) {
	if s.config.Cache.RedisURL == "" {
		s.memory = cache.NewMemoryCache()
		return s.memory, nil
	}

	redisCache, err := cache.NewRedisCache(ctx, s.config.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to permission cache: %w", err)
	}
	s.redis = redisCache
	s.logger.Info("permission cache connected to redis")
	return redisCache, nil
}
