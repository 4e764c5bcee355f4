package ratelimit

import (
	"sync"
	"time"
)

// Throttle enforces a minimum interval between requests per key. Unlike
// Limiter it has no window counter: the first call in an interval passes,
// everything else inside the interval is rejected.
type Throttle struct {
	mu       sync.Mutex
	last     map[string]time.Time
	interval time.Duration

	// now is swappable for tests
	now func() time.Time
}

// NewThrottle creates a throttle with the given minimum interval
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		last:     make(map[string]time.Time),
		interval: interval,
		now:      time.Now,
	}
}

// Allow reports whether a call for key may proceed now
func (t *Throttle) Allow(key string) bool {
	if t.interval <= 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[key]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[key] = now
	return true
}

// Prune drops entries older than the given age
func (t *Throttle) Prune(age time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-age)
	removed := 0
	for key, last := range t.last {
		if last.Before(cutoff) {
			delete(t.last, key)
			removed++
		}
	}
	return removed
}
