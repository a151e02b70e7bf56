package inbound

import (
	"context"

	"github.com/shandysiswandi/gorevive/internal/notification/usecase"
)

type uc interface {
	ConsumeRecoveryCompleted(ctx context.Context, in usecase.ConsumeRecoveryCompletedInput) error
}
