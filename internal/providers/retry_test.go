package providers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func withFastBackoff(t *testing.T) {
	t.Helper()
	orig := backoffBase
	backoffBase = time.Millisecond
	t.Cleanup(func() { backoffBase = orig })
}

func TestRetryWithBackoff_Success(t *testing.T) {
	withFastBackoff(t)
	calls := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		calls++
		if calls < 2 {
			return &TransportError{Provider: "p", StatusCode: 500}
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		calls++
		return &TransportError{Provider: "p", StatusCode: 400}
	})
	if err == nil || calls != 1 {
		t.Errorf("400 must not be retried: err = %v, calls = %d", err, calls)
	}

	calls = 0
	retryWithBackoff(context.Background(), 3, func() error {
		calls++
		return errors.New("plain")
	})
	if calls != 1 {
		t.Errorf("non-transport errors must not be retried, calls = %d", calls)
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retryWithBackoff(ctx, 3, func() error {
		return &TransportError{Provider: "p", StatusCode: 429}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestErrorMessages(t *testing.T) {
	ce := &ConfigError{Provider: "openai", Var: "OPENAI_API_KEY", Reason: "environment variable is not set"}
	if !strings.Contains(ce.Error(), "OPENAI_API_KEY") {
		t.Errorf("ConfigError = %q", ce.Error())
	}

	te := &TransportError{Provider: "openai", StatusCode: 500, Body: strings.Repeat("x", 400)}
	if !strings.Contains(te.Error(), "status 500") || !strings.HasSuffix(te.Error(), "...") {
		t.Errorf("TransportError = %q", te.Error())
	}

	te = &TransportError{Provider: "openai", Err: errors.New("dial tcp")}
	if !strings.Contains(te.Error(), "request failed") {
		t.Errorf("TransportError = %q", te.Error())
	}
	if !errors.Is(te, te.Err) {
		t.Error("TransportError should unwrap")
	}
}

func TestIsAuthError(t *testing.T) {
	if !IsAuthError(&TransportError{StatusCode: 401}) {
		t.Error("401 is an auth error")
	}
	if IsAuthError(&TransportError{StatusCode: 500}) {
		t.Error("500 is not an auth error")
	}
	if IsAuthError(errors.New("x")) {
		t.Error("plain error is not an auth error")
	}
}
