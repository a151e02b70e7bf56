package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gorevive/internal/notification/usecase"
	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
	"github.com/shandysiswandi/gorevive/internal/pkg/messaging"
	"github.com/shandysiswandi/gorevive/internal/pkg/uid"
	"github.com/shandysiswandi/gorevive/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) RecoveryCompletedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "RecoveryCompletedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: recovery completed notification", "msg_body", string(body))

	var payload event.RecoveryCompletedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of recovery completed notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeRecoveryCompleted(ctx, usecase.ConsumeRecoveryCompletedInput{
		EventID:     payload.EventID,
		SubjectID:   payload.SubjectID,
		Email:       payload.Email,
		CompletedAt: payload.CompletedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume recovery completed", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
