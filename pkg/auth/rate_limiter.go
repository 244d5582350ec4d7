package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key (client IP or subject).
// Limits can be changed at runtime; existing buckets pick them up.
type KeyedLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

// NewKeyedLimiter creates a limiter allowing rps requests per second with the
// given burst per key. A non-positive rps disables limiting.
func NewKeyedLimiter(rps float64, burst int) *KeyedLimiter {
	l := &KeyedLimiter{
		visitors: make(map[string]*visitor),
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
	l.SetLimits(rps, burst)
	return l
}

// SetLimits changes the rate and burst of every bucket
func (l *KeyedLimiter) SetLimits(rps float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limit = rate.Limit(rps)
	if rps <= 0 {
		l.limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	l.burst = burst
	for _, v := range l.visitors {
		v.limiter.SetLimit(l.limit)
		v.limiter.SetBurst(l.burst)
	}
}

// Limits returns the current rate and burst
func (l *KeyedLimiter) Limits() (float64, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return float64(l.limit), l.burst
}

// Allow checks if a request is allowed
func (l *KeyedLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	now := l.now()
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1), nil
}

// Reset resets the rate limit for a key
func (l *KeyedLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.visitors, key)
	return nil
}

// Cleanup drops buckets idle for longer than the idle TTL
func (l *KeyedLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup periodically until ctx is done
func (l *KeyedLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}
