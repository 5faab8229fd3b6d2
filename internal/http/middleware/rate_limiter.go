package middleware

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	apperrors "admin-portal/pkg/errors"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRetryAfter    = "Retry-After"

	limiterIdleTTL         = 10 * time.Minute
	limiterCleanupInterval = time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter is a token bucket per caller. Signed-in callers are keyed by
// subject, everyone else by client IP.
type RateLimiter struct {
	limiters sync.Map // key -> *limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

func NewRateLimiter(requestsPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
		now:   time.Now,
	}
}

// NewStrictRateLimiter limits credential submission
func NewStrictRateLimiter() *RateLimiter {
	return NewRateLimiter(5, 10)
}

// NewGlobalRateLimiter limits general portal traffic
func NewGlobalRateLimiter() *RateLimiter {
	return NewRateLimiter(100, 200)
}

func (rl *RateLimiter) entry(key string) *limiterEntry {
	if e, ok := rl.limiters.Load(key); ok {
		return e.(*limiterEntry)
	}
	e, _ := rl.limiters.LoadOrStore(key, &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)})
	return e.(*limiterEntry)
}

// Allow consumes one token for key
func (rl *RateLimiter) Allow(key string) bool {
	e := rl.entry(key)
	e.lastSeen.Store(rl.now().UnixNano())
	return e.limiter.Allow()
}

// Sweep forgets callers idle for longer than idle and returns how many
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	cutoff := rl.now().Add(-idle).UnixNano()
	removed := 0
	rl.limiters.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastSeen.Load() < cutoff {
			rl.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Start sweeps idle callers until ctx is done
func (rl *RateLimiter) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Sweep(limiterIdleTTL)
			}
		}
	}()
}

func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if sess := CurrentSession(c); sess.Valid() {
				key = "subject:" + sess.Subject
			}

			header := c.Response().Header()
			header.Set(headerRateLimit, strconv.Itoa(rl.burst))

			e := rl.entry(key)
			e.lastSeen.Store(rl.now().UnixNano())
			if !e.limiter.Allow() {
				header.Set(headerRateRemaining, "0")
				header.Set(headerRetryAfter, "1")
				return apperrors.RateLimited("rate limit exceeded")
			}

			header.Set(headerRateRemaining, strconv.Itoa(int(e.limiter.Tokens())))
			return next(c)
		}
	}
}
