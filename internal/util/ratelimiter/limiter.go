package ratelimiter

import (
	"sync"
	"time"
)

// Limiter allows one action per interval for each key.
// It is safe for concurrent use. The zero-length interval never limits.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

// New creates a new keyed rate limiter with the specified interval
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether key may act now. When allowed the attempt is recorded;
// otherwise the remaining wait is returned.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < l.interval {
			return false, l.interval - elapsed
		}
	}
	l.last[key] = now
	return true, 0
}

// Forget drops the state of key so its next action is allowed immediately
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	delete(l.last, key)
	l.mu.Unlock()
}

// Prune removes keys idle for longer than the interval and returns how many were dropped
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, last := range l.last {
		if now.Sub(last) >= l.interval {
			delete(l.last, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}

// Interval returns the configured rate limit interval
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
