package app

import (
	"context"
	"testing"
	"time"

	"admin-portal/internal/config"
	"admin-portal/pkg/password"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := password.HashWithCost("pw", bcrypt.MinCost)
	require.NoError(t, err)

	return &config.Config{
		Server:  config.ServerConfig{Port: "0", ReadTimeout: time.Second, WriteTimeout: time.Second, ShutdownTimeout: time.Second},
		Backend: config.BackendConfig{Timeout: time.Second, DevUsers: "ana:" + hash + ":viewer"},
		JWT:     config.JWTConfig{Secret: "q9Zt4LmXv2Rb7NcYw1Ks8HdPf3Gj6TeU"},
		Session: config.SessionConfig{CookieName: "admin_session", TTL: time.Hour, FetchTimeout: time.Second},
		Cache:   config.CacheConfig{TTL: time.Minute},
		Routes:  config.RoutesConfig{LoginPath: "/auth/login", ForbiddenPath: "/forbidden"},
		Log:     config.LogConfig{Level: "info", Format: "json"},
	}
}

func TestInitializeServiceWithMemoryCache(t *testing.T) {
	svc, err := InitializeService(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, svc.memory)
	assert.Nil(t, svc.redis)
	require.NoError(t, svc.Shutdown(context.Background()))
}

func TestInitializeServiceWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache.RedisURL = "redis://" + mr.Addr()

	svc, err := InitializeService(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, svc.redis)
	assert.Nil(t, svc.memory)
	require.NoError(t, svc.Shutdown(context.Background()))
}

func TestInitializeServiceErrors(t *testing.T) {
	t.Run("malformed dev users", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Backend.DevUsers = "ana:only-two"
		_, err := InitializeService(cfg, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("missing routes file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Routes.File = t.TempDir() + "/absent.yaml"
		_, err := InitializeService(cfg, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Cache.RedisURL = "redis://127.0.0.1:1"
		_, err := InitializeService(cfg, zap.NewNop())
		assert.Error(t, err)
	})
}
