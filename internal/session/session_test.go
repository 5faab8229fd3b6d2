package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"admin-portal/internal/rbac"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "q9Zt4LmXv2Rb7NcYw1Ks8HdPf3Gj6TeU"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

// ============================================================================
// Session
// ============================================================================

func TestNilSessionIsInvalid(t *testing.T) {
	var s *Session
	assert.False(t, s.Valid())
	assert.Nil(t, s.Permissions())
	assert.Nil(t, s.Roles())
}

func TestSessionStartsWithEmptyPermissions(t *testing.T) {
	store := NewStore(time.Hour)
	sess := store.Create(Identity{Subject: "u-1"}, time.Time{})

	require.True(t, sess.Valid())
	assert.False(t, sess.Roles().Populated())
	assert.False(t, sess.Permissions().HasPermission(rbac.ResourceBranches, rbac.ActionList))

	assert.True(t, sess.InstallPermissions(rbac.PermissionSetOf(rbac.NewPermission(rbac.ResourceBranches, rbac.ActionList))))
	assert.True(t, sess.Permissions().HasPermission(rbac.ResourceBranches, rbac.ActionList))
}

// ============================================================================
// Store
// ============================================================================

func TestStoreCreateAndGet(t *testing.T) {
	clock := newClock()
	store := NewStore(time.Hour, WithClock(clock.Now))

	sess := store.Create(Identity{Subject: "u-1", Role: "viewer", Token: "tok"}, time.Time{})
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, clock.Now().Add(time.Hour), sess.ExpiresAt)

	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestStoreExpiryUsesEarlierDeadline(t *testing.T) {
	clock := newClock()
	store := NewStore(time.Hour, WithClock(clock.Now))

	sess := store.Create(Identity{Subject: "u-1"}, clock.Now().Add(10*time.Minute))
	assert.Equal(t, clock.Now().Add(10*time.Minute), sess.ExpiresAt)

	clock.Advance(11 * time.Minute)
	assert.False(t, sess.Valid())
	_, ok := store.Get(sess.ID)
	assert.False(t, ok)
}

func TestStoreDeleteClearsPermissions(t *testing.T) {
	store := NewStore(time.Hour)
	sess := store.Create(Identity{Subject: "u-1"}, time.Time{})
	sess.Roles().Replace(rbac.PermissionSetOf(rbac.NewPermission(rbac.ResourceEvents, rbac.ActionRead)))
	require.True(t, sess.Permissions().HasPermission(rbac.ResourceEvents, rbac.ActionRead))

	assert.True(t, store.Delete(sess.ID))
	assert.True(t, sess.Ended())
	assert.False(t, sess.Roles().Populated())
	assert.False(t, sess.InstallPermissions(rbac.PermissionSetOf(rbac.NewPermission(rbac.ResourceEvents, rbac.ActionRead))))
	assert.False(t, sess.Permissions().HasPermission(rbac.ResourceEvents, rbac.ActionRead))
	assert.False(t, store.Delete(sess.ID))
}

func TestStoreCleanupExpired(t *testing.T) {
	clock := newClock()
	store := NewStore(time.Hour, WithClock(clock.Now))

	short := store.Create(Identity{Subject: "a"}, clock.Now().Add(time.Minute))
	store.Create(Identity{Subject: "b"}, time.Time{})
	short.Roles().Replace(rbac.PermissionSetOf(rbac.NewPermission(rbac.ResourceUsers, rbac.ActionManage)))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, store.CleanupExpired())
	assert.Equal(t, 1, store.Len())
	assert.False(t, short.Roles().Populated())
}

func TestStoreCleanupRunsExpiryHook(t *testing.T) {
	clock := newClock()
	var expired []string
	store := NewStore(time.Hour, WithClock(clock.Now), WithExpiryHook(func(sess *Session) {
		assert.True(t, sess.Ended())
		expired = append(expired, sess.Subject)
	}))

	store.Create(Identity{Subject: "a"}, clock.Now().Add(time.Minute))
	store.Create(Identity{Subject: "b"}, time.Time{})
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, store.CleanupExpired())
	assert.Equal(t, []string{"a"}, expired)

	// explicit logout does not go through the hook
	expired = nil
	for _, id := range sessionIDs(store) {
		store.Delete(id)
	}
	assert.Empty(t, expired)
}

func sessionIDs(s *Store) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

func TestStoreStartStop(t *testing.T) {
	clock := newClock()
	store := NewStore(time.Hour, WithClock(clock.Now))
	store.Create(Identity{Subject: "a"}, clock.Now().Add(time.Minute))
	clock.Advance(time.Hour)

	store.Start(context.Background(), 5*time.Millisecond)
	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	store.Stop()

	NewStore(time.Hour).Stop()
}

// ============================================================================
// Tokens
// ============================================================================

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService(testSecret, 15*time.Minute)

	token, err := ts.Issue("u-42", "branch_manager")
	require.NoError(t, err)

	id, expiry, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-42", id.Subject)
	assert.Equal(t, "branch_manager", id.Role)
	assert.Equal(t, token, id.Token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiry, 5*time.Second)
}

func TestTokenRejected(t *testing.T) {
	ts := NewTokenService(testSecret, time.Minute)

	other, err := NewTokenService("another-secret-value-of-32-chars!", time.Minute).Issue("u-1", "")
	require.NoError(t, err)

	expired, err := NewTokenService(testSecret, -time.Minute).Issue("u-1", "")
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": other,
		"expired":      expired,
		"no subject":   noSubject,
		"wrong alg":    wrongAlg,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := ts.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
