package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
	"github.com/shandysiswandi/gorevive/internal/pkg/messaging"
	"github.com/shandysiswandi/gorevive/internal/recovery/usecase"
	"github.com/shandysiswandi/gorevive/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishRecoveryCompleted(ctx context.Context, msg usecase.RecoveryCompletedEvent) error {
	ctx, span := m.ins.Tracer("recovery.outbound.mq").Start(ctx, "PublishRecoveryCompleted")
	defer span.End()

	body, err := json.Marshal(event.RecoveryCompletedMessage{
		EventID:     msg.EventID,
		SubjectID:   msg.SubjectID,
		Email:       msg.Email,
		CompletedAt: msg.CompletedAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.RecoveryCompletedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
