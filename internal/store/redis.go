package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the cache client used for face-encoding lookups.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts. The portal treats the cache
// as best-effort: callers fall back to the database when it is unreachable.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}
