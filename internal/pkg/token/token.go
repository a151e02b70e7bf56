package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shandysiswandi/gorevive/internal/pkg/clock"
	"github.com/shandysiswandi/gorevive/internal/pkg/hash"
	"github.com/shandysiswandi/gorevive/internal/pkg/nonce"
	"github.com/shandysiswandi/gorevive/internal/pkg/otp"
	"github.com/shandysiswandi/gorevive/internal/pkg/valueobject"
)

var (
	// ErrMalformed indicates the envelope could not be decoded.
	ErrMalformed = errors.New("token: malformed envelope")
	// ErrBadSignature indicates the signature does not match the envelope.
	ErrBadSignature = errors.New("token: invalid signature")
	// ErrExpired indicates the envelope is past its expiry.
	ErrExpired = errors.New("token: expired")
	// ErrWrongAction indicates a session token presented for a different step.
	ErrWrongAction = errors.New("token: wrong action")
	// ErrReplayed indicates the envelope's nonce was already consumed.
	ErrReplayed = errors.New("token: already used")
)

// Envelope is the wire form of a signed token: the base64-encoded JSON
// claims plus a detached hex signature over the raw JSON bytes.
type Envelope struct {
	Token     string
	Signature string
}

// SessionClaims binds a subject to one named workflow step.
type SessionClaims struct {
	SubjectID      int64  `json:"subject_id"`
	Action         string `json:"action"`
	Nonce          string `json:"nonce"`
	IssuedAt       int64  `json:"issued_at"`
	ExpiresAt      int64  `json:"expires_at"`
	CodeCommitment string `json:"code_commitment"`
}

// MatchesCommitment reports whether the supplied one-time code is the
// code this session token was minted for.
func (c SessionClaims) MatchesCommitment(code string) bool {
	want := commitment(code, c.Action, c.SubjectID, c.Nonce)

	return subtle.ConstantTimeCompare([]byte(want), []byte(c.CodeCommitment)) == 1
}

// SecureClaims carries arbitrary step data under the same envelope rules.
type SecureClaims struct {
	Data      valueobject.JSONMap `json:"data"`
	Nonce     string              `json:"nonce"`
	IssuedAt  int64               `json:"issued_at"`
	ExpiresAt int64               `json:"expires_at"`
}

// IssuedSession is the result of minting a session token. Code is the
// raw one-time code for in-process handoff to the dispatcher; it must
// never be written to a response body.
type IssuedSession struct {
	Envelope Envelope
	Code     string
}

// Manager issues and verifies both envelope kinds.
type Manager struct {
	signer hash.Hash
	codes  otp.OTP
	ledger nonce.Ledger
	clock  clock.Clocker
}

// NewManager constructs a Manager.
func NewManager(signer hash.Hash, codes otp.OTP, ledger nonce.Ledger, clk clock.Clocker) *Manager {
	return &Manager{
		signer: signer,
		codes:  codes,
		ledger: ledger,
		clock:  clk,
	}
}

// IssueSession mints a session token for the subject and action with a
// fresh nonce and a commitment to the one-time code current at issue time.
func (m *Manager) IssueSession(subjectID int64, action string, ttl time.Duration) (IssuedSession, error) {
	n, err := newNonce()
	if err != nil {
		return IssuedSession{}, err
	}

	now := m.clock.Now()
	code := m.codes.Generate(now, subjectID)

	claims := SessionClaims{
		SubjectID:      subjectID,
		Action:         action,
		Nonce:          n,
		IssuedAt:       now.Unix(),
		ExpiresAt:      now.Add(ttl).Unix(),
		CodeCommitment: commitment(code, action, subjectID, n),
	}

	env, err := m.seal(claims)
	if err != nil {
		return IssuedSession{}, err
	}

	return IssuedSession{Envelope: env, Code: code}, nil
}

// VerifySession validates a session token for the expected action and
// consumes its nonce. The nonce is marked used only after every other
// check passes, so a failed attempt does not burn the token.
func (m *Manager) VerifySession(ctx context.Context, env Envelope, expectedAction string) (SessionClaims, error) {
	claims, err := m.PeekSession(ctx, env, expectedAction)
	if err != nil {
		return SessionClaims{}, err
	}

	if err := m.ConsumeNonce(ctx, claims.Nonce, claims.ExpiresAt); err != nil {
		return SessionClaims{}, err
	}

	return claims, nil
}

// PeekSession runs every session-token check except nonce consumption.
// Callers that defer acceptance (for example until an external dispatch
// succeeds) peek first and call ConsumeNonce afterwards.
func (m *Manager) PeekSession(ctx context.Context, env Envelope, expectedAction string) (SessionClaims, error) {
	raw, err := m.open(env)
	if err != nil {
		return SessionClaims{}, err
	}

	var claims SessionClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return SessionClaims{}, ErrMalformed
	}

	if m.clock.Now().Unix() > claims.ExpiresAt {
		return SessionClaims{}, ErrExpired
	}

	if claims.Action != expectedAction {
		return SessionClaims{}, ErrWrongAction
	}

	if err := m.checkUnused(ctx, claims.Nonce); err != nil {
		return SessionClaims{}, err
	}

	return claims, nil
}

// IssueSecure mints a secure payload around the caller-supplied data.
func (m *Manager) IssueSecure(data valueobject.JSONMap, ttl time.Duration) (Envelope, error) {
	n, err := newNonce()
	if err != nil {
		return Envelope{}, err
	}

	now := m.clock.Now()

	return m.seal(SecureClaims{
		Data:      data,
		Nonce:     n,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
}

// VerifySecure validates a secure payload and consumes its nonce.
func (m *Manager) VerifySecure(ctx context.Context, env Envelope) (SecureClaims, error) {
	claims, err := m.PeekSecure(ctx, env)
	if err != nil {
		return SecureClaims{}, err
	}

	if err := m.ConsumeNonce(ctx, claims.Nonce, claims.ExpiresAt); err != nil {
		return SecureClaims{}, err
	}

	return claims, nil
}

// PeekSecure runs every secure-payload check except nonce consumption.
func (m *Manager) PeekSecure(ctx context.Context, env Envelope) (SecureClaims, error) {
	raw, err := m.open(env)
	if err != nil {
		return SecureClaims{}, err
	}

	var claims SecureClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return SecureClaims{}, ErrMalformed
	}

	if m.clock.Now().Unix() > claims.ExpiresAt {
		return SecureClaims{}, ErrExpired
	}

	if err := m.checkUnused(ctx, claims.Nonce); err != nil {
		return SecureClaims{}, err
	}

	return claims, nil
}

func (m *Manager) seal(claims any) (Envelope, error) {
	raw, err := json.Marshal(claims)
	if err != nil {
		return Envelope{}, fmt.Errorf("token: encode claims: %w", err)
	}

	sig, err := m.signer.Hash(string(raw))
	if err != nil {
		return Envelope{}, fmt.Errorf("token: sign claims: %w", err)
	}

	return Envelope{
		Token:     base64.StdEncoding.EncodeToString(raw),
		Signature: string(sig),
	}, nil
}

// open decodes the wire token and checks its signature, returning the
// raw JSON claims.
func (m *Manager) open(env Envelope) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(env.Token)
	if err != nil {
		return nil, ErrMalformed
	}

	if !m.signer.Verify(env.Signature, string(raw)) {
		return nil, ErrBadSignature
	}

	return raw, nil
}

// ConsumeNonce marks an envelope's nonce used for its remaining
// lifetime. It fails with ErrReplayed when another caller won the race.
func (m *Manager) ConsumeNonce(ctx context.Context, n string, expiresAt int64) error {
	ttl := time.Unix(expiresAt, 0).Sub(m.clock.Now())
	if ttl <= 0 {
		ttl = time.Second
	}

	ok, err := m.ledger.MarkIfUnused(ctx, n, ttl)
	if err != nil {
		return fmt.Errorf("token: mark nonce: %w", err)
	}
	if !ok {
		return ErrReplayed
	}

	return nil
}

func (m *Manager) checkUnused(ctx context.Context, n string) error {
	used, err := m.ledger.IsUsed(ctx, n)
	if err != nil {
		return fmt.Errorf("token: check nonce: %w", err)
	}
	if used {
		return ErrReplayed
	}

	return nil
}

// newNonce returns 128 bits of randomness, hex-encoded.
func newNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: generate nonce: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// commitment ties a one-time code to a specific action, subject, and
// nonce so an observed code cannot be replayed under another envelope.
func commitment(code, action string, subjectID int64, n string) string {
	inner := sha256.Sum256([]byte(action + strconv.FormatInt(subjectID, 10) + n))
	outer := sha256.Sum256([]byte(code + hex.EncodeToString(inner[:])))

	return hex.EncodeToString(outer[:])
}
