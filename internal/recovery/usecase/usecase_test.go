package usecase

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gorevive/internal/pkg/config"
	"github.com/shandysiswandi/gorevive/internal/pkg/goerror"
	"github.com/shandysiswandi/gorevive/internal/pkg/goroutine"
	"github.com/shandysiswandi/gorevive/internal/pkg/hash"
	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
	"github.com/shandysiswandi/gorevive/internal/pkg/nonce"
	"github.com/shandysiswandi/gorevive/internal/pkg/otp"
	"github.com/shandysiswandi/gorevive/internal/pkg/token"
	"github.com/shandysiswandi/gorevive/internal/pkg/validator"
	"github.com/shandysiswandi/gorevive/internal/recovery/entity"
)

var reCode = regexp.MustCompile(`\d{6}`)

type fixedClock struct {
	at time.Time
}

func (f *fixedClock) Now() time.Time {
	return f.at
}

type fakeUID struct {
	next int64
}

func (f *fakeUID) Generate() int64 {
	f.next++
	return f.next
}

type fakeDB struct {
	subject        *entity.Subject
	updatedID      int64
	updatedHash    string
	credentialSets int
}

func (f *fakeDB) GetSubjectByEmail(_ context.Context, email string) (*entity.Subject, error) {
	if f.subject == nil || f.subject.Email != email {
		return nil, goerror.ErrNotFound
	}

	return f.subject, nil
}

func (f *fakeDB) UpdateSubjectCredential(_ context.Context, subjectID int64, credentialHash string) error {
	f.updatedID = subjectID
	f.updatedHash = credentialHash
	f.credentialSets++

	return nil
}

type fakeSMS struct {
	err    error
	phones []string
	bodies []string
}

func (f *fakeSMS) Send(_ context.Context, phone, body string) error {
	if f.err != nil {
		return f.err
	}

	f.phones = append(f.phones, phone)
	f.bodies = append(f.bodies, body)

	return nil
}

type fakeMQ struct {
	mu     sync.Mutex
	events []RecoveryCompletedEvent
}

func (f *fakeMQ) PublishRecoveryCompleted(_ context.Context, msg RecoveryCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)

	return nil
}

type fixture struct {
	uc      *Usecase
	db      *fakeDB
	sms     *fakeSMS
	mq      *fakeMQ
	clock   *fixedClock
	routine *goroutine.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  recovery:
    step1_ttl_minutes: 15
    step2_ttl_minutes: 10
`))
	if err != nil {
		t.Fatalf("building config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("building validator: %v", err)
	}

	ledger := nonce.NewMemory(time.Minute)
	t.Cleanup(func() { ledger.Close() })

	clk := &fixedClock{at: time.Unix(1_700_000_000, 0)}
	secret := "recovery-test-secret"
	signer := hash.NewHMACSHA256(secret)
	codes := otp.NewGenerator([]byte(secret), 60, 6, 1)

	db := &fakeDB{subject: &entity.Subject{
		ID:     42,
		Email:  "jo@example.com",
		Phone:  "61234578",
		Status: entity.SubjectStatusActive,
	}}
	sms := &fakeSMS{}
	mq := &fakeMQ{}
	routine := goroutine.NewManager(8)

	uc := New(Dependency{
		RepoDB:        db,
		RepoSMS:       sms,
		RepoMessaging: mq,
		Tokens:        token.NewManager(signer, codes, ledger, clk),
		Codes:         codes,
		Validator:     v10,
		Config:        cfg,
		HMAC:          signer,
		Credential:    hash.NewHMACSHA256("credential-secret"),
		UID:           &fakeUID{},
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
		Goroutine:     routine,
	})

	return &fixture{uc: uc, db: db, sms: sms, mq: mq, clock: clk, routine: routine}
}

func (f *fixture) mustStart(t *testing.T) *StartOutput {
	t.Helper()

	out, err := f.uc.Start(context.Background(), StartInput{Email: "jo@example.com"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	return out
}

func (f *fixture) mustSendCode(t *testing.T, start *StartOutput) (*SendCodeOutput, string) {
	t.Helper()

	out, err := f.uc.SendCode(context.Background(), SendCodeInput{
		SessionToken:     start.SessionToken,
		SessionSignature: start.SessionSignature,
		Payload:          start.Payload,
		PayloadSignature: start.PayloadSignature,
		Phone:            "61234578",
	})
	if err != nil {
		t.Fatalf("send code failed: %v", err)
	}

	if len(f.sms.bodies) == 0 {
		t.Fatalf("no SMS was dispatched")
	}
	code := reCode.FindString(f.sms.bodies[len(f.sms.bodies)-1])
	if code == "" {
		t.Fatalf("SMS body carries no code: %q", f.sms.bodies[len(f.sms.bodies)-1])
	}

	return out, code
}

func TestStartMasksPhone(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out := f.mustStart(t)

	// Assert
	if out.MaskedPhone != "61****78" {
		t.Fatalf("masked phone = %q, want 61****78", out.MaskedPhone)
	}
	if out.SessionToken == "" || out.SessionSignature == "" || out.Payload == "" || out.PayloadSignature == "" {
		t.Fatalf("expected a full envelope pair, got %+v", out)
	}
	if out.SubjectRef == "" || out.SubjectRef == "42" {
		t.Fatalf("subject ref must be set and non-reversible, got %q", out.SubjectRef)
	}
}

func TestStartUniformDenial(t *testing.T) {
	// Arrange
	f := newFixture(t)

	cases := []struct {
		name    string
		mutate  func()
		email   string
	}{
		{name: "unknown email", mutate: func() {}, email: "nobody@example.com"},
		{
			name:   "banned subject",
			mutate: func() { f.db.subject.Status = entity.SubjectStatusBanned },
			email:  "jo@example.com",
		},
		{
			name:   "phone not deliverable",
			mutate: func() { f.db.subject.Status = entity.SubjectStatusActive; f.db.subject.Phone = "12345678" },
			email:  "jo@example.com",
		},
		{
			name:   "no phone on file",
			mutate: func() { f.db.subject.Phone = "" },
			email:  "jo@example.com",
		},
	}

	var messages []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.mutate()

			// Act
			_, err := f.uc.Start(context.Background(), StartInput{Email: tc.email})

			// Assert
			if err == nil {
				t.Fatalf("expected denial")
			}
			var gerr *goerror.Error
			if !errors.As(err, &gerr) {
				t.Fatalf("unexpected error type: %v", err)
			}
			if gerr.Code() != goerror.CodeUnauthorized {
				t.Fatalf("code = %v, want unauthorized", gerr.Code())
			}
			messages = append(messages, gerr.Error())
		})
	}

	for _, msg := range messages {
		if msg != messages[0] {
			t.Fatalf("denial messages differ, enumeration is possible: %v", messages)
		}
	}
}

func TestRecoveryHappyPath(t *testing.T) {
	// Arrange
	f := newFixture(t)
	start := f.mustStart(t)
	sent, code := f.mustSendCode(t, start)

	// Act
	err := f.uc.Complete(context.Background(), CompleteInput{
		SessionToken:     sent.SessionToken,
		SessionSignature: sent.SessionSignature,
		Payload:          sent.Payload,
		PayloadSignature: sent.PayloadSignature,
		Code:             code,
		NewPassword:      "BrandNew123!",
		ConfirmPassword:  "BrandNew123!",
	})

	// Assert
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if f.db.updatedID != 42 {
		t.Fatalf("credential updated for subject %d, want 42", f.db.updatedID)
	}
	if f.db.updatedHash == "" || f.db.updatedHash == "BrandNew123!" {
		t.Fatalf("credential must be stored hashed, got %q", f.db.updatedHash)
	}

	if err := f.routine.Wait(); err != nil {
		t.Fatalf("waiting for background tasks: %v", err)
	}
	if len(f.mq.events) != 1 {
		t.Fatalf("expected one completion event, got %d", len(f.mq.events))
	}
	if f.mq.events[0].SubjectID != 42 || f.mq.events[0].Email != "jo@example.com" {
		t.Fatalf("unexpected completion event: %+v", f.mq.events[0])
	}
}

func TestSendCodeSMSFailureKeepsEnvelopesUsable(t *testing.T) {
	// Arrange
	f := newFixture(t)
	start := f.mustStart(t)
	f.sms.err = errors.New("gateway unreachable")

	in := SendCodeInput{
		SessionToken:     start.SessionToken,
		SessionSignature: start.SessionSignature,
		Payload:          start.Payload,
		PayloadSignature: start.PayloadSignature,
		Phone:            "61234578",
	}

	// Act
	_, err := f.uc.SendCode(context.Background(), in)

	// Assert: dispatch failure is retryable.
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeTimeout {
		t.Fatalf("error = %v, want timeout-class business error", err)
	}

	// The same envelopes must still work once the gateway recovers.
	f.sms.err = nil
	if _, err := f.uc.SendCode(context.Background(), in); err != nil {
		t.Fatalf("retry after gateway recovery failed: %v", err)
	}
}

func TestSendCodeRejectsCrossedEnvelopes(t *testing.T) {
	// Arrange
	f := newFixture(t)
	start := f.mustStart(t)

	// Act: the confirmed phone differs from the one on file.
	_, err := f.uc.SendCode(context.Background(), SendCodeInput{
		SessionToken:     start.SessionToken,
		SessionSignature: start.SessionSignature,
		Payload:          start.Payload,
		PayloadSignature: start.PayloadSignature,
		Phone:            "71111111",
	})

	// Assert
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("error = %v, want unauthorized", err)
	}
}

func TestCompleteRejectsStep1Session(t *testing.T) {
	// Arrange: a step-1 session token presented at the final phase.
	f := newFixture(t)
	start := f.mustStart(t)

	// Act
	err := f.uc.Complete(context.Background(), CompleteInput{
		SessionToken:     start.SessionToken,
		SessionSignature: start.SessionSignature,
		Payload:          start.Payload,
		PayloadSignature: start.PayloadSignature,
		Code:             "123456",
		NewPassword:      "BrandNew123!",
		ConfirmPassword:  "BrandNew123!",
	})

	// Assert
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("error = %v, want unauthorized", err)
	}
	if f.db.credentialSets != 0 {
		t.Fatalf("credential must not change on a rejected attempt")
	}
}

func TestCompleteRejectsWrongCode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	start := f.mustStart(t)
	sent, code := f.mustSendCode(t, start)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	// Act
	err := f.uc.Complete(context.Background(), CompleteInput{
		SessionToken:     sent.SessionToken,
		SessionSignature: sent.SessionSignature,
		Payload:          sent.Payload,
		PayloadSignature: sent.PayloadSignature,
		Code:             wrong,
		NewPassword:      "BrandNew123!",
		ConfirmPassword:  "BrandNew123!",
	})

	// Assert
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("error = %v, want unauthorized", err)
	}
	if f.db.credentialSets != 0 {
		t.Fatalf("credential must not change on a wrong code")
	}
}

func TestCompleteWrongCodeKeepsEnvelopesUsable(t *testing.T) {
	// Arrange
	f := newFixture(t)
	start := f.mustStart(t)
	sent, code := f.mustSendCode(t, start)

	in := CompleteInput{
		SessionToken:     sent.SessionToken,
		SessionSignature: sent.SessionSignature,
		Payload:          sent.Payload,
		PayloadSignature: sent.PayloadSignature,
		Code:             "000000",
		NewPassword:      "BrandNew123!",
		ConfirmPassword:  "BrandNew123!",
	}
	if in.Code == code {
		in.Code = "000001"
	}

	// Act: a mistyped code must not retire the step-2 envelopes.
	if err := f.uc.Complete(context.Background(), in); err == nil {
		t.Fatalf("wrong code was accepted")
	}
	in.Code = code
	err := f.uc.Complete(context.Background(), in)

	// Assert
	if err != nil {
		t.Fatalf("retry with the correct code failed: %v", err)
	}
	if f.db.credentialSets != 1 {
		t.Fatalf("credential changed %d times, want 1", f.db.credentialSets)
	}
}

func TestCompleteConcurrentSingleWinner(t *testing.T) {
	// Arrange
	f := newFixture(t)
	start := f.mustStart(t)
	sent, code := f.mustSendCode(t, start)

	in := CompleteInput{
		SessionToken:     sent.SessionToken,
		SessionSignature: sent.SessionSignature,
		Payload:          sent.Payload,
		PayloadSignature: sent.PayloadSignature,
		Code:             code,
		NewPassword:      "BrandNew123!",
		ConfirmPassword:  "BrandNew123!",
	}

	// Act: race the same step-2 envelopes from several goroutines.
	const goroutines = 16
	var wg sync.WaitGroup
	results := make(chan error, goroutines)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.uc.Complete(context.Background(), in)
		}()
	}
	wg.Wait()
	close(results)

	// Assert
	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
			t.Fatalf("loser error = %v, want unauthorized", err)
		}
	}
	if wins != 1 {
		t.Fatalf("completions succeeded %d times, want exactly 1", wins)
	}
	if f.db.credentialSets != 1 {
		t.Fatalf("credential changed %d times, want 1", f.db.credentialSets)
	}
}

func TestCompleteReplay(t *testing.T) {
	// Arrange
	f := newFixture(t)
	start := f.mustStart(t)
	sent, code := f.mustSendCode(t, start)

	in := CompleteInput{
		SessionToken:     sent.SessionToken,
		SessionSignature: sent.SessionSignature,
		Payload:          sent.Payload,
		PayloadSignature: sent.PayloadSignature,
		Code:             code,
		NewPassword:      "BrandNew123!",
		ConfirmPassword:  "BrandNew123!",
	}

	if err := f.uc.Complete(context.Background(), in); err != nil {
		t.Fatalf("first complete failed: %v", err)
	}

	// Act
	err := f.uc.Complete(context.Background(), in)

	// Assert
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("replay error = %v, want unauthorized", err)
	}
	if f.db.credentialSets != 1 {
		t.Fatalf("credential changed %d times, want 1", f.db.credentialSets)
	}
}
