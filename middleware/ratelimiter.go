package middleware

import (
	"sync"
	"time"
)

// SlidingWindowLimiter throttles attempts per identifier over a trailing
// window. Check prunes, counts, and records under a single lock so two
// simultaneous requests can never both take the last slot.
type SlidingWindowLimiter struct {
	mu          sync.Mutex
	attempts    map[string][]time.Time
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// NewSlidingWindowLimiter creates a limiter allowing maxAttempts per window
// for each identifier.
func NewSlidingWindowLimiter(maxAttempts int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		attempts:    make(map[string][]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Check reports whether identifier is under the limit. When it is, the
// attempt is recorded before returning.
func (l *SlidingWindowLimiter) Check(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.attempts[identifier][:0]
	for _, ts := range l.attempts[identifier] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.maxAttempts {
		l.attempts[identifier] = recent
		return false
	}

	l.attempts[identifier] = append(recent, now)
	return true
}

// Prune drops identifiers whose every attempt has expired. Called
// periodically to keep the map from growing without bound.
func (l *SlidingWindowLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for id, stamps := range l.attempts {
		live := false
		for _, ts := range stamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.attempts, id)
		}
	}
}

// StartPruning runs Prune on the given interval until stop is closed.
func (l *SlidingWindowLimiter) StartPruning(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Prune()
			case <-stop:
				return
			}
		}
	}()
}
