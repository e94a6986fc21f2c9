package registration

import (
	"context"
	"sync"
	"time"
)

// Lock names.
const (
	RegistrationLock = "device-registration"
	licenseLockPfx   = "device-license:"
)

func licenseLock(clientID string) string { return licenseLockPfx + clientID }

// Locker hands out exclusive named locks. Acquire blocks for at most timeout
// and returns ErrLockTimeout when the lock could not be taken in time. The
// returned release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, name string, timeout time.Duration) (release func(), err error)
}

// MemoryLocker is an in-process Locker. Each name maps to a one-slot channel.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

func (l *MemoryLocker) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

func (l *MemoryLocker) Acquire(ctx context.Context, name string, timeout time.Duration) (func(), error) {
	ch := l.slot(name)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
	case <-timer.C:
		return nil, ErrLockTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}
