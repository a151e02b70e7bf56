package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/gorevive/internal/pkg/instrument"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		URL:        srv.URL,
		APIKey:     "test-key",
		Sender:     "TEST",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	}, instrument.NewNoop())
}

func TestSendSuccess(t *testing.T) {
	// Arrange
	var got sendRequest
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(sendResponse{Success: true, Message: "queued"})
	})

	// Act
	err := client.Send(context.Background(), "61234578", "code 123456")

	// Assert
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.To != "61234578" || got.From != "TEST" {
		t.Fatalf("request = %+v", got)
	}
}

func TestSendGatewayReportsFailure(t *testing.T) {
	// Arrange: HTTP 200 with a body saying the dispatch failed.
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		json.NewEncoder(w).Encode(sendResponse{Success: false, Message: "number blocked"})
	})

	// Act
	err := client.Send(context.Background(), "61234578", "code 123456")

	// Assert
	if err == nil {
		t.Fatalf("expected an error for success=false")
	}
	if !strings.Contains(err.Error(), "number blocked") {
		t.Fatalf("error = %v, want the gateway message", err)
	}
	if calls != 1 {
		t.Fatalf("gateway called %d times, want 1 (rejection is not retryable)", calls)
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	// Arrange: two 5xx answers, then success.
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(sendResponse{Success: true})
	})

	// Act
	err := client.Send(context.Background(), "61234578", "code 123456")

	// Assert
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls != 3 {
		t.Fatalf("gateway called %d times, want 3", calls)
	}
}

func TestSendClientErrorIsNotRetried(t *testing.T) {
	// Arrange
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	// Act
	err := client.Send(context.Background(), "61234578", "code 123456")

	// Assert
	if err == nil {
		t.Fatalf("expected an error for a 4xx response")
	}
	if calls != 1 {
		t.Fatalf("gateway called %d times, want 1", calls)
	}
}
