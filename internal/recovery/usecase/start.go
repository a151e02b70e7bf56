package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gorevive/internal/pkg/goerror"
	"github.com/shandysiswandi/gorevive/internal/pkg/valueobject"
	"github.com/shandysiswandi/gorevive/internal/recovery/entity"
)

type StartInput struct {
	Email string `validate:"required,email"`
}

type StartOutput struct {
	SessionToken     string
	SessionSignature string
	Payload          string
	PayloadSignature string
	MaskedPhone      string
	SubjectRef       string
}

// Start is the first recovery phase: it resolves the account, checks
// that it can receive an SMS code, and hands the client a step-1
// session token plus a payload carrying the phone for the next phase.
func (s *Usecase) Start(ctx context.Context, in StartInput) (*StartOutput, error) {
	ctx, span := s.startSpan(ctx, "Start")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	subject, err := s.repoDB.GetSubjectByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "recovery requested for unavailable subject", "email", in.Email)
		return nil, errRecoveryDenied()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get subject by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !subject.CanRecover() {
		slog.WarnContext(ctx, "recovery requested for ineligible subject",
			"subject_id", subject.ID, "status", subject.Status.String())
		return nil, errRecoveryDenied()
	}

	ttl := s.cfg.GetMinute("modules.recovery.step1_ttl_minutes")

	session, err := s.tokens.IssueSession(subject.ID, entity.ActionStep1, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue step-1 session token", "subject_id", subject.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	payload, err := s.tokens.IssueSecure(valueobject.JSONMap{
		"subject_id": subject.ID,
		"email":      subject.Email,
		"phone":      subject.Phone,
		"step":       1,
	}, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue step-1 payload", "subject_id", subject.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ref, err := s.subjectRef(subject.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive subject reference", "subject_id", subject.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StartOutput{
		SessionToken:     session.Envelope.Token,
		SessionSignature: session.Envelope.Signature,
		Payload:          payload.Token,
		PayloadSignature: payload.Signature,
		MaskedPhone:      subject.MaskedPhone(),
		SubjectRef:       ref,
	}, nil
}
