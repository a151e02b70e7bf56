package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gorevive/internal/pkg/clock"
	"github.com/shandysiswandi/gorevive/internal/pkg/config"
	"github.com/shandysiswandi/gorevive/internal/pkg/goroutine"
	"github.com/shandysiswandi/gorevive/internal/pkg/hash"
	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
	"github.com/shandysiswandi/gorevive/internal/pkg/mail"
	"github.com/shandysiswandi/gorevive/internal/pkg/messaging"
	"github.com/shandysiswandi/gorevive/internal/pkg/nonce"
	"github.com/shandysiswandi/gorevive/internal/pkg/otp"
	"github.com/shandysiswandi/gorevive/internal/pkg/router"
	"github.com/shandysiswandi/gorevive/internal/pkg/uid"
	"github.com/shandysiswandi/gorevive/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	argon2id  hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	codes     otp.OTP

	// resources
	dbConn      *pgxpool.Pool
	cacheConn   *redis.Client
	nonceLedger nonce.Ledger
	mail        mail.Mail
	messaging   messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initNonceLedger()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

// credential returns the hasher that protects stored credentials,
// selected by the hash.driver config key. Defaults to bcrypt.
func (a *App) credential() hash.Hash {
	if a.config.GetString("hash.driver") == "argon2id" {
		return a.argon2id
	}

	return a.bcrypt
}
