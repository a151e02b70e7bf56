package nonce

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryMarkIfUnused(t *testing.T) {
	// Arrange
	ledger := NewMemory(time.Minute)
	defer ledger.Close()
	ctx := context.Background()

	// Act
	first, err := ledger.MarkIfUnused(ctx, "abc", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ledger.MarkIfUnused(ctx, "abc", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Assert
	if !first {
		t.Fatalf("first mark should succeed")
	}
	if second {
		t.Fatalf("second mark should be rejected as replay")
	}
}

func TestMemoryIsUsed(t *testing.T) {
	// Arrange
	ledger := NewMemory(time.Minute)
	defer ledger.Close()
	ctx := context.Background()

	// Act & Assert
	used, err := ledger.IsUsed(ctx, "never-seen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used {
		t.Fatalf("unseen nonce reported used")
	}

	if _, err := ledger.MarkIfUnused(ctx, "seen", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	used, err = ledger.IsUsed(ctx, "seen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !used {
		t.Fatalf("marked nonce reported unused")
	}
}

func TestMemoryExpiredEntryIsReusable(t *testing.T) {
	// Arrange: long sweep interval so only lazy eviction applies.
	ledger := NewMemory(time.Hour)
	defer ledger.Close()
	ctx := context.Background()

	if _, err := ledger.MarkIfUnused(ctx, "short", 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	// Act
	used, err := ledger.IsUsed(ctx, "short")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := ledger.MarkIfUnused(ctx, "short", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Assert
	if used {
		t.Fatalf("expired nonce reported used")
	}
	if !ok {
		t.Fatalf("expired nonce could not be re-marked")
	}
}

func TestMemorySweepEvictsExpired(t *testing.T) {
	// Arrange
	ledger := NewMemory(10 * time.Millisecond)
	defer ledger.Close()
	ctx := context.Background()

	if _, err := ledger.MarkIfUnused(ctx, "short", time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Act: wait for the background sweep to collect the entry.
	deadline := time.Now().Add(2 * time.Second)
	for ledger.Evicted() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Assert
	if ledger.Evicted() == 0 {
		t.Fatalf("sweep did not evict the expired entry")
	}
	if _, ok := ledger.entries.Load("short"); ok {
		t.Fatalf("expired entry still present after sweep")
	}
}

func TestMemoryConcurrentSingleWinner(t *testing.T) {
	// Arrange
	ledger := NewMemory(time.Minute)
	defer ledger.Close()
	ctx := context.Background()

	const goroutines = 32
	var wg sync.WaitGroup
	results := make(chan bool, goroutines)

	// Act
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ledger.MarkIfUnused(ctx, "contested", time.Minute)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	// Assert
	winners := 0
	for ok := range results {
		if ok {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}
