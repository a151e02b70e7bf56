package inbound

import (
	"context"

	"github.com/shandysiswandi/gorevive/internal/pkg/router"
	"github.com/shandysiswandi/gorevive/internal/recovery/usecase"
)

type uc interface {
	Start(ctx context.Context, in usecase.StartInput) (*usecase.StartOutput, error)
	SendCode(ctx context.Context, in usecase.SendCodeInput) (*usecase.SendCodeOutput, error)
	Complete(ctx context.Context, in usecase.CompleteInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Password Recovery (three phases, all public)
	r.POST("/api/v1/recovery/start", end.Start)
	r.POST("/api/v1/recovery/send-code", end.SendCode)
	r.POST("/api/v1/recovery/complete", end.Complete)
}
