package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// backoffBase is the first retry delay; it doubles on each attempt.
var backoffBase = time.Second

func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Only rate limits and server errors are worth repeating.
		var te *TransportError
		if !errors.As(lastErr, &te) || !te.retryable() {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := backoffBase << uint(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}

// postJSON sends payload to url and returns the body of a 200 response.
// Every failure comes back as a *TransportError.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload []byte, retries int) ([]byte, error) {
	var body []byte
	err := retryWithBackoff(ctx, retries, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return &TransportError{Provider: provider, Err: fmt.Errorf("creating request: %w", err)}
		}
		httpReq.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}

		httpResp, err := client.Do(httpReq)
		if err != nil {
			return &TransportError{Provider: provider, Err: fmt.Errorf("sending request: %w", err)}
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return &TransportError{Provider: provider, StatusCode: httpResp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
		}
		if httpResp.StatusCode != http.StatusOK {
			return &TransportError{Provider: provider, StatusCode: httpResp.StatusCode, Body: string(respBody)}
		}
		body = respBody
		return nil
	})
	return body, err
}
