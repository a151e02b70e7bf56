package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/gorevive/internal/pkg/clock"
	"github.com/shandysiswandi/gorevive/internal/pkg/config"
	"github.com/shandysiswandi/gorevive/internal/pkg/goerror"
	"github.com/shandysiswandi/gorevive/internal/pkg/goroutine"
	"github.com/shandysiswandi/gorevive/internal/pkg/hash"
	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
	"github.com/shandysiswandi/gorevive/internal/pkg/otp"
	"github.com/shandysiswandi/gorevive/internal/pkg/token"
	"github.com/shandysiswandi/gorevive/internal/pkg/uid"
	"github.com/shandysiswandi/gorevive/internal/pkg/validator"
	"github.com/shandysiswandi/gorevive/internal/pkg/valueobject"
	"github.com/shandysiswandi/gorevive/internal/recovery/entity"
	"go.opentelemetry.io/otel/trace"
)

type RecoveryCompletedEvent struct {
	EventID     int64
	SubjectID   int64
	Email       string
	CompletedAt time.Time
}

type repoMessaging interface {
	PublishRecoveryCompleted(ctx context.Context, msg RecoveryCompletedEvent) error
}

type repoDB interface {
	GetSubjectByEmail(ctx context.Context, email string) (*entity.Subject, error)
	UpdateSubjectCredential(ctx context.Context, subjectID int64, credentialHash string) error
}

type repoSMS interface {
	Send(ctx context.Context, phone, body string) error
}

type tokenManager interface {
	IssueSession(subjectID int64, action string, ttl time.Duration) (token.IssuedSession, error)
	PeekSession(ctx context.Context, env token.Envelope, expectedAction string) (token.SessionClaims, error)
	IssueSecure(data valueobject.JSONMap, ttl time.Duration) (token.Envelope, error)
	PeekSecure(ctx context.Context, env token.Envelope) (token.SecureClaims, error)
	ConsumeNonce(ctx context.Context, nonce string, expiresAt int64) error
}

type Usecase struct {
	repoDB        repoDB
	repoSMS       repoSMS
	repoMessaging repoMessaging
	tokens        tokenManager
	codes         otp.OTP
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	credential    hash.Hash
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoSMS       repoSMS
	RepoMessaging repoMessaging
	Tokens        tokenManager
	Codes         otp.OTP
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Credential    hash.Hash
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoSMS:       dep.RepoSMS,
		repoMessaging: dep.RepoMessaging,
		tokens:        dep.Tokens,
		codes:         dep.Codes,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		credential:    dep.Credential,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("recovery.usecase").Start(ctx, name)
}

// errRecoveryDenied is the uniform response for every phase-1 refusal:
// unknown email, no phone on file, malformed phone, and ineligible
// account status all look identical to the caller. The precise reason
// goes to the log only.
func errRecoveryDenied() error {
	return goerror.NewBusiness("account cannot be recovered", goerror.CodeUnauthorized)
}

// errSessionInvalid covers every envelope failure in phases 2 and 3.
func errSessionInvalid() error {
	return goerror.NewBusiness("recovery session is invalid or expired", goerror.CodeUnauthorized)
}

// mapTokenErr folds envelope errors into the uniform session error,
// keeping the detailed reason in the log.
func (s *Usecase) mapTokenErr(ctx context.Context, step string, err error) error {
	switch {
	case errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrBadSignature),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrWrongAction),
		errors.Is(err, token.ErrReplayed):
		slog.WarnContext(ctx, "recovery envelope rejected", "step", step, "reason", err)
		return errSessionInvalid()
	default:
		slog.ErrorContext(ctx, "failed to verify recovery envelope", "step", step, "error", err)
		return goerror.NewServer(err)
	}
}

// subjectRef is a non-reversible reference to the subject for
// diagnostic correlation without disclosing the id.
func (s *Usecase) subjectRef(subjectID int64) (string, error) {
	ref, err := s.hmac.Hash(strconv.FormatInt(subjectID, 10))
	if err != nil {
		return "", err
	}

	return string(ref), nil
}
