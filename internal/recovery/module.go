package recovery

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gorevive/internal/pkg/clock"
	"github.com/shandysiswandi/gorevive/internal/pkg/config"
	"github.com/shandysiswandi/gorevive/internal/pkg/goroutine"
	"github.com/shandysiswandi/gorevive/internal/pkg/hash"
	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
	"github.com/shandysiswandi/gorevive/internal/pkg/messaging"
	"github.com/shandysiswandi/gorevive/internal/pkg/nonce"
	"github.com/shandysiswandi/gorevive/internal/pkg/otp"
	"github.com/shandysiswandi/gorevive/internal/pkg/router"
	"github.com/shandysiswandi/gorevive/internal/pkg/token"
	"github.com/shandysiswandi/gorevive/internal/pkg/uid"
	"github.com/shandysiswandi/gorevive/internal/pkg/validator"
	"github.com/shandysiswandi/gorevive/internal/recovery/inbound"
	"github.com/shandysiswandi/gorevive/internal/recovery/outbound/db"
	"github.com/shandysiswandi/gorevive/internal/recovery/outbound/mq"
	"github.com/shandysiswandi/gorevive/internal/recovery/outbound/sms"
	"github.com/shandysiswandi/gorevive/internal/recovery/usecase"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	NonceLedger nonce.Ledger               `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Credential  hash.Hash                  `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Codes       otp.OTP                    `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	repoSMS := sms.NewClient(sms.Config{
		URL:        dep.Config.GetString("sms.url"),
		APIKey:     dep.Config.GetString("sms.api_key"),
		Sender:     dep.Config.GetString("sms.sender"),
		Timeout:    dep.Config.GetSecond("sms.timeout_seconds"),
		MaxRetries: dep.Config.GetUint64("sms.max_retries"),
	}, dep.Instrument)

	tokens := token.NewManager(dep.HMAC, dep.Codes, dep.NonceLedger, dep.Clock)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoSMS:       repoSMS,
		RepoMessaging: repoMsg,
		Tokens:        tokens,
		Codes:         dep.Codes,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Credential:    dep.Credential,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
