// Package roles fills a session's permission set from the backend without
// ever blocking navigation.
package roles

import (
	"context"
	"sync"
	"time"

	"admin-portal/internal/audit"
	"admin-portal/internal/backend"
	"admin-portal/internal/metrics"
	"admin-portal/internal/rbac"
	"admin-portal/internal/session"
	"admin-portal/pkg/logger"

	"go.uber.org/zap"
)

// Loader runs permission fetches in the background. A failed or timed-out
// fetch leaves the session's set empty, so every declared route stays denied.
type Loader struct {
	fetch   func(context.Context, session.Identity) (rbac.PermissionSet, error)
	timeout time.Duration
	logger  *zap.Logger
	audit   *audit.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoader creates a loader whose fetches are bounded by timeout and
// cancelled when ctx ends or Close is called. Fetches follow a successful
// login, so a source that can refresh is asked for a fresh set.
func NewLoader(ctx context.Context, source backend.PermissionSource, timeout time.Duration, log *zap.Logger, auditLogger *audit.Logger, m *metrics.Metrics) *Loader {
	loaderCtx, cancel := context.WithCancel(ctx)
	fetch := source.FetchPermissions
	if r, ok := source.(backend.PermissionRefresher); ok {
		fetch = r.RefreshPermissions
	}
	return &Loader{
		fetch:   fetch,
		timeout: timeout,
		logger:  log,
		audit:   auditLogger,
		metrics: m,
		ctx:     loaderCtx,
		cancel:  cancel,
	}
}

// Load starts a fetch for sess and returns immediately
func (l *Loader) Load(sess *session.Session) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		_ = l.Fetch(l.ctx, sess)
	}()
}

// Fetch retrieves the permission set of sess and installs it. The previous
// set stays in place when the fetch fails.
func (l *Loader) Fetch(ctx context.Context, sess *session.Session) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	set, err := l.fetch(ctx, session.Identity{
		Subject: sess.Subject,
		Role:    sess.Role,
		Token:   sess.Token,
	})
	elapsed := time.Since(start)
	l.metrics.ObserveFetch(err, elapsed)

	if err != nil {
		l.logger.Error("permission fetch failed",
			zap.String("subject", sess.Subject),
			zap.Duration("elapsed", elapsed),
			logger.SafeError(err),
		)
		l.record(sess, audit.StatusFailure, err, nil)
		return err
	}

	if !sess.InstallPermissions(set) {
		l.logger.Debug("session ended before permissions arrived", zap.String("subject", sess.Subject))
		return nil
	}

	l.logger.Info("permissions loaded",
		zap.String("subject", sess.Subject),
		zap.Int("resources", set.Len()),
		zap.Duration("elapsed", elapsed),
	)
	l.record(sess, audit.StatusSuccess, nil, map[string]any{"permissions": set.Tokens()})
	return nil
}

func (l *Loader) record(sess *session.Session, status audit.Status, err error, metadata map[string]any) {
	if l.audit == nil {
		return
	}
	event := &audit.Event{
		ActorID:  sess.Subject,
		Action:   audit.ActionPermissionLoad,
		Status:   status,
		Metadata: metadata,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	l.audit.Log(event)
}

// Close cancels in-flight fetches and waits for them to return
func (l *Loader) Close() {
	l.cancel()
	l.wg.Wait()
}

// Wait blocks until every started fetch has returned
func (l *Loader) Wait() {
	l.wg.Wait()
}
