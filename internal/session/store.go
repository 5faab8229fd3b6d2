package session

import (
	"context"
	"sync"
	"time"

	"admin-portal/internal/rbac"

	"github.com/google/uuid"
)

const defaultCleanupInterval = 5 * time.Minute

// Store is an in-memory session registry with background expiry sweeping
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	onExpire func(*Session)

	cancel  context.CancelFunc
	stopped chan struct{}
}

type Option func(*Store)

// WithExpiryHook registers fn to run, outside the store lock, for every
// session removed by CleanupExpired
func WithExpiryHook(fn func(*Session)) Option {
	return func(s *Store) { s.onExpire = fn }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store whose sessions live at most ttl. Call Start to run
// the cleanup loop and Stop to end it.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the periodic expiry sweep
func (s *Store) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	cleanupCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	go s.cleanupLoop(cleanupCtx, interval)
}

// Stop ends the cleanup loop and waits for it to exit
func (s *Store) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.stopped
}

func (s *Store) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer close(s.stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired()
		}
	}
}

// Create registers a new session for an authenticated identity. The session
// expires at the earlier of tokenExpiry and now+ttl; a zero tokenExpiry is ignored.
func (s *Store) Create(id Identity, tokenExpiry time.Time) *Session {
	now := s.now()
	expires := now.Add(s.ttl)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expires) {
		expires = tokenExpiry
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Subject:   id.Subject,
		Role:      id.Role,
		Token:     id.Token,
		CreatedAt: now,
		ExpiresAt: expires,
		roles:     rbac.NewRoleService(),
		now:       s.now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session for id. Expired sessions are reported as absent.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || !sess.Valid() {
		return nil, false
	}
	return sess, true
}

// Delete ends the session and clears its permission set
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.end()
	}
	return ok
}

// CleanupExpired removes expired sessions and returns how many were removed
func (s *Store) CleanupExpired() int {
	var expired []*Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if !sess.Valid() {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.end()
		if s.onExpire != nil {
			s.onExpire(sess)
		}
	}
	return len(expired)
}

// Len returns the number of tracked sessions, expired or not
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
