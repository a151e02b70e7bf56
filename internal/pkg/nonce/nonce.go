package nonce

import (
	"context"
	"io"
	"time"
)

// Ledger records consumed nonces.
type Ledger interface {
	io.Closer

	// MarkIfUnused atomically records the nonce. It returns true only
	// if the nonce had not been recorded within its TTL window; false
	// means the nonce was already consumed.
	MarkIfUnused(ctx context.Context, nonce string, ttl time.Duration) (bool, error)

	// IsUsed reports whether the nonce has been recorded, without
	// marking it.
	IsUsed(ctx context.Context, nonce string) (bool, error)
}
