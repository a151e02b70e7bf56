package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gorevive/internal/pkg/goerror"
	"github.com/shandysiswandi/gorevive/internal/pkg/token"
	"github.com/shandysiswandi/gorevive/internal/recovery/entity"
)

type CompleteInput struct {
	SessionToken     string `validate:"required"`
	SessionSignature string `validate:"required"`
	Payload          string `validate:"required"`
	PayloadSignature string `validate:"required"`
	Code             string `validate:"required,len=6,numeric"`
	NewPassword      string `validate:"required,password"`
	ConfirmPassword  string `validate:"required,eqfield=NewPassword"`
}

// Complete is the final recovery phase: it checks the SMS code both
// against the rotating window and against the commitment carried
// inside the session token, then consumes the step-2 envelopes and
// updates the credential. The envelopes are consumed only once the
// code is accepted, so a mistyped code leaves them usable for another
// attempt within their TTL.
func (s *Usecase) Complete(ctx context.Context, in CompleteInput) error {
	ctx, span := s.startSpan(ctx, "Complete")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	session, err := s.tokens.PeekSession(ctx, token.Envelope{
		Token:     in.SessionToken,
		Signature: in.SessionSignature,
	}, entity.ActionStep2)
	if err != nil {
		return s.mapTokenErr(ctx, "complete.session", err)
	}

	payload, err := s.tokens.PeekSecure(ctx, token.Envelope{
		Token:     in.Payload,
		Signature: in.PayloadSignature,
	})
	if err != nil {
		return s.mapTokenErr(ctx, "complete.payload", err)
	}

	if payload.Data.GetInt64("subject_id") != session.SubjectID ||
		payload.Data.GetInt("step") != 2 {
		slog.WarnContext(ctx, "recovery envelope cross-check failed", "subject_id", session.SubjectID)
		return errSessionInvalid()
	}

	// The code must be valid in the current window and be the exact
	// code this session token was minted for.
	if !s.codes.Verify(in.Code, session.SubjectID, s.clock.Now()) ||
		!session.MatchesCommitment(in.Code) {
		slog.WarnContext(ctx, "recovery code rejected", "subject_id", session.SubjectID)
		return goerror.NewBusiness("code is incorrect or expired", goerror.CodeUnauthorized)
	}

	// The code is accepted: retire the step-2 envelopes. Exactly one
	// of several racing requests gets past this point.
	if err := s.tokens.ConsumeNonce(ctx, session.Nonce, session.ExpiresAt); err != nil {
		return s.mapTokenErr(ctx, "complete.session", err)
	}
	if err := s.tokens.ConsumeNonce(ctx, payload.Nonce, payload.ExpiresAt); err != nil {
		return s.mapTokenErr(ctx, "complete.payload", err)
	}

	credentialHash, err := s.credential.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new credential", "subject_id", session.SubjectID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateSubjectCredential(ctx, session.SubjectID, string(credentialHash)); err != nil {
		slog.ErrorContext(ctx, "failed to update subject credential", "subject_id", session.SubjectID, "error", err)
		return goerror.NewServer(err)
	}

	event := RecoveryCompletedEvent{
		EventID:     s.uid.Generate(),
		SubjectID:   session.SubjectID,
		Email:       payload.Data.GetString("email"),
		CompletedAt: s.clock.Now(),
	}
	s.goroutine.Go(ctx, func(pCtx context.Context) error {
		if err := s.repoMessaging.PublishRecoveryCompleted(pCtx, event); err != nil {
			slog.ErrorContext(pCtx, "failed to publish recovery completed", "subject_id", event.SubjectID, "error", err)
		}
		return nil
	})

	return nil
}
