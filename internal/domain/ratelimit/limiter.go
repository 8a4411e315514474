// Package ratelimit provides the per-user import cap and the per-second
// request limiter for the outer API surface.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ErrRateLimitExceeded means the user hit the rolling-window import cap.
var ErrRateLimitExceeded = errors.New("ratelimit: import limit exceeded")

// WindowLimiter caps operations per user within a rolling window. The
// window resets once it has fully elapsed since the first counted
// operation. State is explicit and injected, not ambient: callers own the
// limiter's lifetime, and the mutex makes it safe for concurrent imports
// by the same user.
type WindowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	users map[uuid.UUID]*windowState
}

type windowState struct {
	count       int
	windowStart time.Time
}

// NewWindowLimiter creates a limiter allowing `limit` operations per
// `window` per user.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		users:  make(map[uuid.UUID]*windowState),
	}
}

// WithClock replaces the limiter's clock, for tests.
func (l *WindowLimiter) WithClock(now func() time.Time) *WindowLimiter {
	l.now = now
	return l
}

// Allow consumes one slot for the user, or returns ErrRateLimitExceeded
// when the window is full.
func (l *WindowLimiter) Allow(userID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.users[userID]
	if !ok || now.Sub(state.windowStart) >= l.window {
		l.users[userID] = &windowState{count: 1, windowStart: now}
		return nil
	}

	if state.count >= l.limit {
		return ErrRateLimitExceeded
	}
	state.count++
	return nil
}

// Remaining reports how many operations the user has left in the current
// window.
func (l *WindowLimiter) Remaining(userID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.users[userID]
	if !ok || l.now().Sub(state.windowStart) >= l.window {
		return l.limit
	}
	if state.count >= l.limit {
		return 0
	}
	return l.limit - state.count
}

// RequestLimiter smooths per-user request bursts with a token bucket. It
// guards the HTTP surface in front of the import pipeline; the hourly
// WindowLimiter still applies underneath.
type RequestLimiter struct {
	perSecond rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
}

// NewRequestLimiter creates a token-bucket limiter per user.
func NewRequestLimiter(perSecond float64, burst int) *RequestLimiter {
	return &RequestLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		limiters:  make(map[uuid.UUID]*rate.Limiter),
	}
}

// Allow reports whether the user may issue one more request right now.
func (l *RequestLimiter) Allow(userID uuid.UUID) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.perSecond, l.burst)
		l.limiters[userID] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
