package registration

import (
	"context"
	"sync"
	"time"
)

// Limiter is the registration throttle. Allow admits an attempt and reserves
// the window in one step, so at most one caller is admitted per window. Record
// restarts the window when an admitted attempt completes. The window is
// global, not per client.
type Limiter interface {
	Allow(ctx context.Context) (bool, error)
	Record(ctx context.Context) error
}

// MemoryLimiter keeps the last admission or completion time in process memory.
type MemoryLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{window: window, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.window <= 0 {
		return true, nil
	}
	now := l.now()
	if !l.last.IsZero() && now.Sub(l.last) < l.window {
		return false, nil
	}
	l.last = now
	return true, nil
}

func (l *MemoryLimiter) Record(context.Context) error {
	l.mu.Lock()
	l.last = l.now()
	l.mu.Unlock()
	return nil
}
