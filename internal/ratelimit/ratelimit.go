// ABOUTME: Fixed-window per-key rate limiting behind a single Limiter interface
// ABOUTME: MemoryLimiter for single-process deployments, StoreLimiter for shared counters

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of a single admit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the seconds until the window resets, rounded up to at
// least 1 so callers never receive a zero backoff on a rejection.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(d.ResetAt.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter admits or rejects a request for a key. Implementations must make
// the check-and-increment atomic per key: two concurrent requests at the
// limit boundary may not both be admitted.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// window is one fixed-window counter for a single key.
type window struct {
	count int
	start time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. Counters live in a
// mutex-guarded map; stale windows are replaced lazily on the next request
// for their key. Suitable for single-instance deployments and tests.
//
// Fixed windows are intentionally approximate: a burst straddling a window
// boundary can admit up to 2x the nominal rate. Accepted tradeoff.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window

	limit  int
	length time.Duration
	now    func() time.Time
}

// NewMemoryLimiter creates a limiter admitting `limit` requests per `length`
// window per key.
func NewMemoryLimiter(limit int, length time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		length:  length,
		now:     time.Now,
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.length {
		l.windows[key] = &window{count: 1, start: now}
		return Decision{
			Allowed:   true,
			Remaining: l.limit - 1,
			ResetAt:   now.Add(l.length),
		}, nil
	}

	if w.count >= l.limit {
		return Decision{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   w.start.Add(l.length),
		}, nil
	}

	w.count++
	return Decision{
		Allowed:   true,
		Remaining: l.limit - w.count,
		ResetAt:   w.start.Add(l.length),
	}, nil
}

// WindowStore is the atomic counter primitive backing StoreLimiter. The
// store's SQLiteStore satisfies it; a Redis INCR-with-TTL adapter would too.
type WindowStore interface {
	AdmitRateWindow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (count int, windowStart time.Time, err error)
}

// StoreLimiter delegates the fixed-window counter to an external atomic
// store so multiple server instances share one set of windows.
type StoreLimiter struct {
	store  WindowStore
	limit  int
	length time.Duration
	now    func() time.Time
}

// NewStoreLimiter creates a limiter backed by the given window store.
func NewStoreLimiter(store WindowStore, limit int, length time.Duration) *StoreLimiter {
	return &StoreLimiter{
		store:  store,
		limit:  limit,
		length: length,
		now:    time.Now,
	}
}

// Allow implements Limiter.
func (l *StoreLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()

	count, start, err := l.store.AdmitRateWindow(ctx, key, now, l.length, l.limit)
	if err != nil {
		return Decision{}, err
	}

	if count > l.limit {
		return Decision{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   start.Add(l.length),
		}, nil
	}

	return Decision{
		Allowed:   true,
		Remaining: l.limit - count,
		ResetAt:   start.Add(l.length),
	}, nil
}
