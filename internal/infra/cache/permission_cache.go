package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"admin-portal/internal/backend"
	"admin-portal/internal/metrics"
	"admin-portal/internal/rbac"
	"admin-portal/internal/session"
	apperrors "admin-portal/pkg/errors"
	"admin-portal/pkg/logger"

	"go.uber.org/zap"
)

const permissionKeyPrefix = "admin-portal:permissions:"

// PermissionCache decorates a PermissionSource with a TTL-bounded snapshot
// cache keyed by subject. Cache failures fall through to the source.
// FetchPermissions reads through the snapshot; RefreshPermissions bypasses it.
type PermissionCache struct {
	source  backend.PermissionSource
	store   Store
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewPermissionCache(source backend.PermissionSource, store Store, ttl time.Duration, log *zap.Logger, m *metrics.Metrics) *PermissionCache {
	return &PermissionCache{
		source:  source,
		store:   store,
		ttl:     ttl,
		logger:  log,
		metrics: m,
	}
}

// BuildCacheKey returns the store key for subject
func BuildCacheKey(subject string) string {
	return permissionKeyPrefix + subject
}

func (c *PermissionCache) FetchPermissions(ctx context.Context, id session.Identity) (rbac.PermissionSet, error) {
	key := BuildCacheKey(id.Subject)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var set rbac.PermissionSet
		if decodeErr := json.Unmarshal([]byte(raw), &set); decodeErr == nil {
			c.metrics.ObserveCache(metrics.CacheHit)
			return set, nil
		}
		c.logger.Warn("discarding corrupt permission snapshot", zap.String("subject", id.Subject))
		_ = c.store.Delete(ctx, key)
		c.metrics.ObserveCache(metrics.CacheError)
	case errors.Is(err, apperrors.ErrCacheMiss):
		c.metrics.ObserveCache(metrics.CacheMiss)
	default:
		c.logger.Warn("permission cache unavailable", zap.String("subject", id.Subject), logger.SafeError(err))
		c.metrics.ObserveCache(metrics.CacheError)
	}

	return c.RefreshPermissions(ctx, id)
}

// RefreshPermissions fetches from the source without reading the snapshot and
// overwrites it. Logins use this path so a new session never starts from a
// set the backend may already have revoked.
func (c *PermissionCache) RefreshPermissions(ctx context.Context, id session.Identity) (rbac.PermissionSet, error) {
	set, err := c.source.FetchPermissions(ctx, id)
	if err != nil {
		return set, err
	}

	key := BuildCacheKey(id.Subject)
	data, err := json.Marshal(set)
	if err == nil {
		err = c.store.Set(ctx, key, string(data), c.ttl)
	}
	if err != nil {
		c.logger.Warn("failed to store permission snapshot", zap.String("subject", id.Subject), logger.SafeError(err))
	}

	return set, nil
}

// Invalidate drops the cached snapshot of subject
func (c *PermissionCache) Invalidate(ctx context.Context, subject string) error {
	return c.store.Delete(ctx, BuildCacheKey(subject))
}
