// Package app assembles the admin portal from configuration.
package app

import (
	"context"
	"time"

	"admin-portal/internal/config"
	httpserver "admin-portal/internal/http"
	"admin-portal/internal/http/middleware"
	"admin-portal/internal/infra/cache"
	"admin-portal/internal/roles"
	"admin-portal/internal/session"
	"admin-portal/pkg/logger"

	"go.uber.org/zap"
)

const (
	sessionSweepInterval = time.Minute
	cacheSweepInterval   = 5 * time.Minute
	serverAddrPrefix     = ":"
)

// Service represents the admin portal gateway
type Service struct {
	config *config.Config
	logger *zap.Logger
	server *httpserver.Server

	sessions *session.Store
	loader   *roles.Loader
	csrf     *middleware.CSRFMiddleware
	memory   *cache.MemoryCache // set when no Redis is configured
	redis    *cache.RedisCache

	ctx    context.Context
	cancel context.CancelFunc
}

// startBackground launches the expiry sweeps; release stops them
func (s *Service) startBackground() {
	s.sessions.Start(s.ctx, sessionSweepInterval)
	if s.memory != nil {
		go s.startCacheCleanup(s.ctx)
	}
}

// Start blocks serving HTTP until Shutdown
func (s *Service) Start() error {
	s.logger.Info("starting admin portal", zap.String("port", s.config.Server.Port))
	return s.server.Start(serverAddrPrefix + s.config.Server.Port)
}

// startCacheCleanup runs a background task to drop expired cache entries
func (s *Service) startCacheCleanup(ctx context.Context) {
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.memory.Sweep()
		}
	}
}

// Shutdown stops accepting requests, then cancels in-flight permission
// fetches and stops the background tasks.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.release()
	return err
}

func (s *Service) release() {
	if s.loader != nil {
		s.loader.Close()
	}
	if s.sessions != nil {
		s.sessions.Stop()
	}
	if s.csrf != nil {
		s.csrf.Stop()
	}
	s.cancel()
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("failed to close permission cache", logger.SafeError(err))
		}
	}
}
