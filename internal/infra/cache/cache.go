// Package cache holds fetched permission snapshots so repeated logins of the
// same subject do not reach the backend.
package cache

import (
	"context"
	"time"
)

// Store is a string key/value store with per-entry TTL. Get returns
// apperrors.ErrCacheMiss for absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
