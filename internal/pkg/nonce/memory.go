package nonce

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Memory implements Ledger with an in-process map and a background
// sweep that evicts expired entries. Expired entries are treated as
// absent even before the sweep collects them.
type Memory struct {
	entries sync.Map // nonce -> expiry (time.Time)
	stop    chan struct{}
	closed  atomic.Bool
	evicted atomic.Int64
}

// NewMemory constructs an in-process ledger. The sweep runs on the
// given interval; zero falls back to one minute.
func NewMemory(sweepInterval time.Duration) *Memory {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}

	m := &Memory{stop: make(chan struct{})}
	go m.sweep(sweepInterval)

	return m
}

// MarkIfUnused atomically records the nonce with the given TTL.
func (m *Memory) MarkIfUnused(_ context.Context, nonce string, ttl time.Duration) (bool, error) {
	expiry := time.Now().Add(ttl)

	for {
		actual, loaded := m.entries.LoadOrStore(nonce, expiry)
		if !loaded {
			return true, nil
		}

		if time.Now().Before(actual.(time.Time)) {
			return false, nil
		}

		// The existing entry is stale. Delete it only if it is still
		// the one we observed, then retry the store.
		if m.entries.CompareAndDelete(nonce, actual) {
			m.evicted.Inc()
		}
	}
}

// IsUsed reports whether the nonce has a live entry.
func (m *Memory) IsUsed(_ context.Context, nonce string) (bool, error) {
	val, ok := m.entries.Load(nonce)
	if !ok {
		return false, nil
	}

	return time.Now().Before(val.(time.Time)), nil
}

// Evicted returns the number of expired entries removed so far.
func (m *Memory) Evicted() int64 {
	return m.evicted.Load()
}

// Close stops the background sweep. It is safe to call more than once.
func (m *Memory) Close() error {
	if m.closed.CompareAndSwap(false, true) {
		close(m.stop)
	}

	return nil
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.entries.Range(func(key, val any) bool {
				if now.After(val.(time.Time)) && m.entries.CompareAndDelete(key, val) {
					m.evicted.Inc()
				}

				return true
			})
		}
	}
}
