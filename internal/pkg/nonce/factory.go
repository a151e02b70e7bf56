package nonce

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DriverRedis selects the Redis backend.
	DriverRedis = "redis"
	// DriverMemory selects the in-process backend.
	DriverMemory = "memory"
)

// ErrUnknownDriver indicates an unsupported ledger driver.
var ErrUnknownDriver = errors.New("nonce: unknown driver")

// FactoryOptions groups config for supported ledger backends.
type FactoryOptions struct {
	// RedisClient is the shared Redis connection for the redis driver.
	// The ledger does not own it; closing the ledger leaves it open.
	RedisClient *redis.Client
	// RedisPrefix namespaces ledger keys; empty falls back to "nonce:".
	RedisPrefix string
	// SweepInterval controls expired-entry eviction for the memory driver.
	SweepInterval time.Duration
}

// NewFromDriver constructs a Ledger implementation by driver name.
func NewFromDriver(driver string, opts FactoryOptions) (Ledger, error) {
	switch strings.TrimSpace(driver) {
	case DriverRedis:
		if opts.RedisClient == nil {
			return nil, errors.New("nonce: redis driver requires a client")
		}
		return NewRedis(opts.RedisClient, opts.RedisPrefix), nil
	case DriverMemory:
		return NewMemory(opts.SweepInterval), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
