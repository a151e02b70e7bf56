package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/gorevive/internal/pkg/goerror"
	"github.com/shandysiswandi/gorevive/internal/pkg/token"
	"github.com/shandysiswandi/gorevive/internal/pkg/valueobject"
	"github.com/shandysiswandi/gorevive/internal/recovery/entity"
)

type SendCodeInput struct {
	SessionToken     string `validate:"required"`
	SessionSignature string `validate:"required"`
	Payload          string `validate:"required"`
	PayloadSignature string `validate:"required"`
	Phone            string `validate:"required,msisdn"`
}

type SendCodeOutput struct {
	SessionToken     string
	SessionSignature string
	Payload          string
	PayloadSignature string
	MaskedPhone      string
}

// SendCode is the second recovery phase: it checks the step-1 envelopes
// against the phone the user confirmed, dispatches a one-time code over
// SMS, and hands out the step-2 envelopes. The step-1 envelopes are
// consumed only after the SMS gateway reports success, so a delivery
// failure lets the client retry this phase without restarting.
func (s *Usecase) SendCode(ctx context.Context, in SendCodeInput) (*SendCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "SendCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	session, err := s.tokens.PeekSession(ctx, token.Envelope{
		Token:     in.SessionToken,
		Signature: in.SessionSignature,
	}, entity.ActionStep1)
	if err != nil {
		return nil, s.mapTokenErr(ctx, "send_code.session", err)
	}

	payload, err := s.tokens.PeekSecure(ctx, token.Envelope{
		Token:     in.Payload,
		Signature: in.PayloadSignature,
	})
	if err != nil {
		return nil, s.mapTokenErr(ctx, "send_code.payload", err)
	}

	if payload.Data.GetInt64("subject_id") != session.SubjectID ||
		payload.Data.GetInt("step") != 1 ||
		payload.Data.GetString("phone") != in.Phone {
		slog.WarnContext(ctx, "recovery envelope cross-check failed", "subject_id", session.SubjectID)
		return nil, errSessionInvalid()
	}

	ttl := s.cfg.GetMinute("modules.recovery.step2_ttl_minutes")

	next, err := s.tokens.IssueSession(session.SubjectID, entity.ActionStep2, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue step-2 session token", "subject_id", session.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	smsSentAt := s.clock.Now()
	nextPayload, err := s.tokens.IssueSecure(valueobject.JSONMap{
		"subject_id":  session.SubjectID,
		"email":       payload.Data.GetString("email"),
		"phone":       in.Phone,
		"step":        2,
		"sms_sent_at": smsSentAt.Unix(),
	}, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue step-2 payload", "subject_id", session.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	body := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.",
		next.Code, int(ttl.Minutes()))
	if err := s.repoSMS.Send(ctx, in.Phone, body); err != nil {
		slog.ErrorContext(ctx, "failed to dispatch recovery code",
			"subject_id", session.SubjectID, "phone", entity.MaskPhone(in.Phone), "error", err)
		return nil, goerror.NewBusiness("could not deliver the code, please try again", goerror.CodeTimeout)
	}

	// Delivery succeeded: retire the step-1 envelopes.
	if err := s.tokens.ConsumeNonce(ctx, session.Nonce, session.ExpiresAt); err != nil {
		return nil, s.mapTokenErr(ctx, "send_code.session", err)
	}
	if err := s.tokens.ConsumeNonce(ctx, payload.Nonce, payload.ExpiresAt); err != nil {
		return nil, s.mapTokenErr(ctx, "send_code.payload", err)
	}

	return &SendCodeOutput{
		SessionToken:     next.Envelope.Token,
		SessionSignature: next.Envelope.Signature,
		Payload:          nextPayload.Token,
		PayloadSignature: nextPayload.Signature,
		MaskedPhone:      entity.MaskPhone(in.Phone),
	}, nil
}
