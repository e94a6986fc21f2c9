package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Nixie-Tech-LLC/signage/internal/registration"
)

// Limiter is a registration.Limiter shared across processes. Allow claims a
// marker key with SET NX and a TTL of one window; Record resets the TTL when
// the admitted attempt completes.
type Limiter struct {
	rdb    *redis.Client
	key    string
	window time.Duration
}

var _ registration.Limiter = (*Limiter)(nil)

func NewLimiter(rdb *redis.Client, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, key: keyPrefix + "throttle:registration", window: window}
}

func (l *Limiter) Allow(ctx context.Context) (bool, error) {
	if l.window <= 0 {
		return true, nil
	}
	return l.rdb.SetNX(ctx, l.key, time.Now().UnixMilli(), l.window).Result()
}

func (l *Limiter) Record(ctx context.Context) error {
	if l.window <= 0 {
		return nil
	}
	return l.rdb.Set(ctx, l.key, time.Now().UnixMilli(), l.window).Err()
}
