package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/gorevive/internal/pkg/hash"
	"github.com/shandysiswandi/gorevive/internal/pkg/nonce"
	"github.com/shandysiswandi/gorevive/internal/pkg/otp"
	"github.com/shandysiswandi/gorevive/internal/pkg/valueobject"
)

type fixedClock struct {
	at time.Time
}

func (f *fixedClock) Now() time.Time {
	return f.at
}

func newTestManager(t *testing.T, clk *fixedClock) *Manager {
	t.Helper()

	ledger := nonce.NewMemory(time.Minute)
	t.Cleanup(func() { ledger.Close() })

	secret := "token-test-secret"

	return NewManager(
		hash.NewHMACSHA256(secret),
		otp.NewGenerator([]byte(secret), 60, 6, 1),
		ledger,
		clk,
	)
}

func TestSessionRoundTrip(t *testing.T) {
	// Arrange
	clk := &fixedClock{at: time.Unix(1_700_000_000, 0)}
	mgr := newTestManager(t, clk)
	ctx := context.Background()

	// Act
	issued, err := mgr.IssueSession(42, "password_reset_step1", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := mgr.VerifySession(ctx, issued.Envelope, "password_reset_step1")

	// Assert
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.SubjectID != 42 {
		t.Fatalf("subject id = %d, want 42", claims.SubjectID)
	}
	if len(issued.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", issued.Code)
	}
	if !claims.MatchesCommitment(issued.Code) {
		t.Fatalf("issued code does not match its own commitment")
	}
	if claims.MatchesCommitment("000000") && issued.Code != "000000" {
		t.Fatalf("wrong code matched the commitment")
	}
}

func TestSessionReplay(t *testing.T) {
	// Arrange
	clk := &fixedClock{at: time.Unix(1_700_000_000, 0)}
	mgr := newTestManager(t, clk)
	ctx := context.Background()

	issued, err := mgr.IssueSession(42, "password_reset_step1", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Act
	if _, err := mgr.VerifySession(ctx, issued.Envelope, "password_reset_step1"); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	_, err = mgr.VerifySession(ctx, issued.Envelope, "password_reset_step1")

	// Assert
	if !errors.Is(err, ErrReplayed) {
		t.Fatalf("second verify error = %v, want ErrReplayed", err)
	}
}

func TestSessionTampering(t *testing.T) {
	// Arrange
	clk := &fixedClock{at: time.Unix(1_700_000_000, 0)}
	mgr := newTestManager(t, clk)
	ctx := context.Background()

	issued, err := mgr.IssueSession(42, "password_reset_step1", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	cases := []struct {
		name string
		env  Envelope
		want error
	}{
		{
			name: "flipped token byte",
			env:  Envelope{Token: "A" + issued.Envelope.Token[1:], Signature: issued.Envelope.Signature},
			want: ErrBadSignature,
		},
		{
			name: "flipped signature byte",
			env:  Envelope{Token: issued.Envelope.Token, Signature: "0" + issued.Envelope.Signature[1:]},
			want: ErrBadSignature,
		},
		{
			name: "not base64",
			env:  Envelope{Token: "%%%not-base64%%%", Signature: issued.Envelope.Signature},
			want: ErrMalformed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			_, err := mgr.VerifySession(ctx, tc.env, "password_reset_step1")

			// Assert
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}

	// A failed attempt must not consume the nonce.
	if _, err := mgr.VerifySession(ctx, issued.Envelope, "password_reset_step1"); err != nil {
		t.Fatalf("verify after failed attempts: %v", err)
	}
}

func TestSessionWrongAction(t *testing.T) {
	// Arrange
	clk := &fixedClock{at: time.Unix(1_700_000_000, 0)}
	mgr := newTestManager(t, clk)
	ctx := context.Background()

	issued, err := mgr.IssueSession(42, "password_reset_step1", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Act
	_, err = mgr.VerifySession(ctx, issued.Envelope, "password_reset_step2")

	// Assert
	if !errors.Is(err, ErrWrongAction) {
		t.Fatalf("error = %v, want ErrWrongAction", err)
	}

	// Wrong-action attempts must not consume the nonce either.
	if _, err := mgr.VerifySession(ctx, issued.Envelope, "password_reset_step1"); err != nil {
		t.Fatalf("verify for the right action: %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	// Arrange
	clk := &fixedClock{at: time.Unix(1_700_000_000, 0)}
	mgr := newTestManager(t, clk)
	ctx := context.Background()

	issued, err := mgr.IssueSession(42, "password_reset_step1", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Act & Assert: still valid exactly at expiry.
	clk.at = clk.at.Add(10 * time.Minute)
	if _, err := mgr.VerifySession(ctx, issued.Envelope, "password_reset_step1"); err != nil {
		t.Fatalf("verify at expiry boundary: %v", err)
	}

	issued, err = mgr.IssueSession(42, "password_reset_step1", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	clk.at = clk.at.Add(10*time.Minute + time.Second)
	if _, err := mgr.VerifySession(ctx, issued.Envelope, "password_reset_step1"); !errors.Is(err, ErrExpired) {
		t.Fatalf("error = %v, want ErrExpired", err)
	}
}

func TestSessionPeekThenConsume(t *testing.T) {
	// Arrange
	clk := &fixedClock{at: time.Unix(1_700_000_000, 0)}
	mgr := newTestManager(t, clk)
	ctx := context.Background()

	issued, err := mgr.IssueSession(42, "password_reset_step1", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Act: peeking must not consume the nonce.
	claims, err := mgr.PeekSession(ctx, issued.Envelope, "password_reset_step1")
	if err != nil {
		t.Fatalf("peek failed: %v", err)
	}
	if _, err := mgr.PeekSession(ctx, issued.Envelope, "password_reset_step1"); err != nil {
		t.Fatalf("second peek failed: %v", err)
	}

	// Assert: an explicit consume works once, then reads as replay.
	if err := mgr.ConsumeNonce(ctx, claims.Nonce, claims.ExpiresAt); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if err := mgr.ConsumeNonce(ctx, claims.Nonce, claims.ExpiresAt); !errors.Is(err, ErrReplayed) {
		t.Fatalf("second consume error = %v, want ErrReplayed", err)
	}
	if _, err := mgr.PeekSession(ctx, issued.Envelope, "password_reset_step1"); !errors.Is(err, ErrReplayed) {
		t.Fatalf("peek after consume error = %v, want ErrReplayed", err)
	}
}

func TestSecureRoundTrip(t *testing.T) {
	// Arrange
	clk := &fixedClock{at: time.Unix(1_700_000_000, 0)}
	mgr := newTestManager(t, clk)
	ctx := context.Background()

	data := valueobject.JSONMap{
		"subject_id": int64(42),
		"phone":      "61234578",
		"step":       1,
	}

	// Act
	env, err := mgr.IssueSecure(data, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := mgr.VerifySecure(ctx, env)

	// Assert
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got := claims.Data.GetInt64("subject_id"); got != 42 {
		t.Fatalf("subject_id = %d, want 42", got)
	}
	if got := claims.Data.GetString("phone"); got != "61234578" {
		t.Fatalf("phone = %q, want 61234578", got)
	}
	if got := claims.Data.GetInt("step"); got != 1 {
		t.Fatalf("step = %d, want 1", got)
	}

	if _, err := mgr.VerifySecure(ctx, env); !errors.Is(err, ErrReplayed) {
		t.Fatalf("second verify error = %v, want ErrReplayed", err)
	}
}
