package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gorevive/internal/pkg/mail"
)

const recoveryCompletedSubject = "Your password was changed"

const recoveryCompletedBody = `
<p>Hello,</p>
<p>The password for your account was changed on {{.changed_at}} after a
phone-verified recovery.</p>
<p>If you made this change, no action is needed. If you did not, contact
support immediately at {{.support_email}}.</p>
`

type (
	ConsumeRecoveryCompletedInput struct {
		EventID     int64  `validate:"required,gt=0"`
		SubjectID   int64  `validate:"required,gt=0"`
		Email       string `validate:"required,email"`
		CompletedAt int64  `validate:"required,gt=0"`
	}
)

func (s *Usecase) ConsumeRecoveryCompleted(ctx context.Context, in ConsumeRecoveryCompletedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeRecoveryCompleted")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	body, err := s.renderTemplate("recovery_completed", recoveryCompletedBody, map[string]any{
		"changed_at":    time.Unix(in.CompletedAt, 0).UTC().Format(time.RFC1123),
		"support_email": s.cfg.GetString("app.support_email"),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render recovery-completed email", "subject_id", in.SubjectID, "error", err)
		return nil
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  recoveryCompletedSubject,
		HTMLBody: body,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send recovery-completed email", "subject_id", in.SubjectID, "error", err)
		return err
	}

	return nil
}
