package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/gorevive/internal/pkg/clock"
	"github.com/shandysiswandi/gorevive/internal/pkg/config"
	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
	"github.com/shandysiswandi/gorevive/internal/pkg/mail"
	"github.com/shandysiswandi/gorevive/internal/pkg/validator"
)

type fakeMail struct {
	err  error
	sent []mail.Message
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, msg)

	return nil
}

func newFixture(t *testing.T, repo *fakeMail) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  support_email: support@example.com
`))
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	t.Cleanup(func() { cfg.Close() })

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}

	return NewNotification(Dependency{
		Config:     cfg,
		Clock:      clock.New(),
		Validator:  v10,
		RepoMail:   repo,
		Instrument: instrument.NewNoop(),
	})
}

func TestConsumeRecoveryCompletedSendsMail(t *testing.T) {
	repo := &fakeMail{}
	uc := newFixture(t, repo)
	completedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	err := uc.ConsumeRecoveryCompleted(context.Background(), ConsumeRecoveryCompletedInput{
		EventID:     101,
		SubjectID:   42,
		Email:       "jo@example.com",
		CompletedAt: completedAt.Unix(),
	})
	if err != nil {
		t.Fatalf("ConsumeRecoveryCompleted: %v", err)
	}

	if len(repo.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(repo.sent))
	}
	msg := repo.sent[0]
	if len(msg.To) != 1 || msg.To[0] != "jo@example.com" {
		t.Errorf("To = %v, want [jo@example.com]", msg.To)
	}
	if msg.Subject != recoveryCompletedSubject {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTMLBody, completedAt.Format(time.RFC1123)) {
		t.Errorf("body missing change timestamp: %q", msg.HTMLBody)
	}
	if !strings.Contains(msg.HTMLBody, "support@example.com") {
		t.Errorf("body missing support email: %q", msg.HTMLBody)
	}
}

func TestConsumeRecoveryCompletedInvalidMessageIsDropped(t *testing.T) {
	repo := &fakeMail{}
	uc := newFixture(t, repo)

	err := uc.ConsumeRecoveryCompleted(context.Background(), ConsumeRecoveryCompletedInput{
		EventID:     102,
		SubjectID:   42,
		Email:       "not-an-email",
		CompletedAt: time.Now().Unix(),
	})

	// Malformed payloads are dropped, not redelivered.
	if err != nil {
		t.Fatalf("ConsumeRecoveryCompleted: %v", err)
	}
	if len(repo.sent) != 0 {
		t.Fatalf("sent = %d, want 0", len(repo.sent))
	}
}

func TestConsumeRecoveryCompletedMailFailureIsRetried(t *testing.T) {
	repo := &fakeMail{err: errors.New("smtp unavailable")}
	uc := newFixture(t, repo)

	err := uc.ConsumeRecoveryCompleted(context.Background(), ConsumeRecoveryCompletedInput{
		EventID:     103,
		SubjectID:   42,
		Email:       "jo@example.com",
		CompletedAt: time.Now().Unix(),
	})

	// The broker redelivers on error.
	if err == nil {
		t.Fatal("expected error to request redelivery")
	}
}
