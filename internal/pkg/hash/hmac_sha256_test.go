package hash

import (
	"testing"
)

func TestHMACSHA256HashAndVerify(t *testing.T) {
	// Arrange
	h := NewHMACSHA256("test-secret")

	// Act
	sig, err := h.Hash("hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Assert
	if len(sig) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(sig))
	}
	if !h.Verify(string(sig), "hello world") {
		t.Fatalf("signature did not verify for original message")
	}
	if h.Verify(string(sig), "hello world!") {
		t.Fatalf("signature verified for a tampered message")
	}
}

func TestHMACSHA256CrossSecret(t *testing.T) {
	// Arrange
	a := NewHMACSHA256("secret-a")
	b := NewHMACSHA256("secret-b")

	sig, err := a.Hash("payload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Act & Assert
	if b.Verify(string(sig), "payload") {
		t.Fatalf("signature verified under a different secret")
	}
}
