// Package redis holds the shared go-redis client and the redis-backed
// registration lock and throttle used when several API instances run
// against one database.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "signage:"

// NewClient connects to redis and verifies the connection with a PING.
func NewClient(ctx context.Context, address, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", address, err)
	}

	log.Info().Str("address", address).Msg("connected to redis")
	return rdb, nil
}
