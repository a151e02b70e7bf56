package notification

import (
	"context"

	"github.com/shandysiswandi/gorevive/internal/notification/inbound"
	"github.com/shandysiswandi/gorevive/internal/notification/outbound/email"
	"github.com/shandysiswandi/gorevive/internal/notification/usecase"
	"github.com/shandysiswandi/gorevive/internal/pkg/clock"
	"github.com/shandysiswandi/gorevive/internal/pkg/config"
	"github.com/shandysiswandi/gorevive/internal/pkg/goroutine"
	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
	"github.com/shandysiswandi/gorevive/internal/pkg/mail"
	"github.com/shandysiswandi/gorevive/internal/pkg/messaging"
	"github.com/shandysiswandi/gorevive/internal/pkg/uid"
	"github.com/shandysiswandi/gorevive/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context
	Messaging  messaging.Messaging
	Config     config.Config
	Instrument instrument.Instrumentation
	UUID       uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	Mail       mail.Mail
}

func New(dep Dependency) error {
	repoMail := email.New(dep.Mail, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		Config:     dep.Config,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		RepoMail:   repoMail,
		Instrument: dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
