package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// Config holds the SMS gateway settings.
type Config struct {
	// URL is the gateway's send endpoint.
	URL string
	// APIKey authenticates this service to the gateway.
	APIKey string
	// Sender is the originator shown to the recipient.
	Sender string
	// Timeout bounds one dispatch attempt, retries included.
	Timeout time.Duration
	// MaxRetries caps transient-failure retries within the timeout.
	MaxRetries uint64
}

// Client sends text messages through an HTTP SMS gateway.
type Client struct {
	cfg  Config
	http *http.Client
	ins  instrument.Instrumentation
}

// NewClient constructs a gateway client. Timeout falls back to 30
// seconds, retries to 3.
func NewClient(cfg Config, ins instrument.Instrumentation) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		ins:  ins,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Send dispatches one message. The whole operation, retries included,
// is bounded by the configured timeout. Gateway 5xx responses and
// transport errors are retried with fibonacci backoff; other HTTP
// statuses and a 2xx body reporting success=false fail immediately.
func (c *Client) Send(ctx context.Context, phone, body string) (err error) {
	ctx, span := c.ins.Tracer("recovery.outbound.sms").Start(ctx, "Send")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(sendRequest{
		To:      phone,
		From:    c.cfg.Sender,
		Message: body,
	})
	if err != nil {
		return fmt.Errorf("sms: encode request: %w", err)
	}

	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(c.cfg.MaxRetries, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		return c.attempt(ctx, payload)
	})
}

func (c *Client) attempt(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("sms: dispatch: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return retry.RetryableError(fmt.Errorf("sms: read response: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// The gateway reports the real outcome in the body, even on 2xx.
		var body sendResponse
		if err := json.Unmarshal(raw, &body); err != nil {
			return fmt.Errorf("sms: decode response: %w", err)
		}
		if !body.Success {
			return fmt.Errorf("sms: gateway rejected dispatch: %s", body.Message)
		}
		return nil
	case resp.StatusCode >= 500:
		return retry.RetryableError(fmt.Errorf("sms: gateway responded %d", resp.StatusCode))
	default:
		return fmt.Errorf("sms: gateway responded %d", resp.StatusCode)
	}
}
