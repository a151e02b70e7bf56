package nonce

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const usedMarker = "used"

// Redis implements Ledger on top of a Redis instance using SET NX, so
// the check-and-set is atomic server-side.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a Redis-backed ledger. An empty prefix defaults
// to "nonce:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "nonce:"
	}

	return &Redis{
		client: client,
		prefix: prefix,
	}
}

// MarkIfUnused atomically records the nonce with the given TTL.
func (r *Redis) MarkIfUnused(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+nonce, usedMarker, ttl).Result()
}

// IsUsed reports whether the nonce has been recorded.
func (r *Redis) IsUsed(ctx context.Context, nonce string) (bool, error) {
	_, err := r.client.Get(ctx, r.prefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Close is a no-op: the Redis connection is owned by the caller.
func (r *Redis) Close() error {
	return nil
}
