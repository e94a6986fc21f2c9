package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/registration"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a registration.Locker shared across processes. A held lock
// expires after Lease so a crashed holder cannot wedge registration.
type Locker struct {
	rdb   *redis.Client
	Lease time.Duration
	Retry time.Duration
}

var _ registration.Locker = (*Locker)(nil)

func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb, Lease: 30 * time.Second, Retry: 25 * time.Millisecond}
}

func (l *Locker) Acquire(ctx context.Context, name string, timeout time.Duration) (func(), error) {
	key := keyPrefix + "lock:" + name
	token := uuid.NewString()
	deadline := time.Now().Add(timeout)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.Lease).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !time.Now().Add(l.Retry).Before(deadline) {
			return nil, registration.ErrLockTimeout
		}
		select {
		case <-time.After(l.Retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			err := releaseScript.Run(context.WithoutCancel(ctx), l.rdb, []string{key}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				log.Error().Err(err).Str("lock", name).Msg("failed to release redis lock")
			}
		})
	}, nil
}
