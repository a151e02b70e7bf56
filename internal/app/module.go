package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gorevive/internal/notification"
	"github.com/shandysiswandi/gorevive/internal/recovery"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.recovery.enabled") {
		if err := recovery.New(recovery.Dependency{
			DBConn:      a.dbConn,
			Goroutine:   a.goroutine,
			Router:      a.router,
			Messaging:   a.messaging,
			NonceLedger: a.nonceLedger,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			HMAC:        a.hmac,
			Credential:  a.credential(),
			Clock:       a.clock,
			Codes:       a.codes,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module recovery", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
