// Package redis builds the Redis client used for request rate limiting.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NewClient connects to addr and pings it with a short timeout. A nil client
// is returned when Redis is unreachable; callers then run without rate
// limiting.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
