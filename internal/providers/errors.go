package providers

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ConfigError reports missing or placeholder credentials. A request is
// never attempted when one is returned.
type ConfigError struct {
	Provider string
	Var      string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Provider, e.Var, e.Reason)
}

// TransportError reports a network failure or a non-success HTTP status.
// StatusCode is zero when no response was received.
type TransportError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: API error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, truncate(e.Body, 300))
}

func (e *TransportError) Unwrap() error { return e.Err }

// Auth reports whether the server rejected the credentials.
func (e *TransportError) Auth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

func (e *TransportError) retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsConfigError checks if an error is a credentials/configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsTransportError checks if an error came from the network or the API status.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsAuthError checks if an error is an authentication failure, either a
// missing key or a 401/403 from the API.
func IsAuthError(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Auth()
	}
	return IsConfigError(err)
}

// lookupKey returns the first non-empty variable in vars. Placeholder values
// copied from a sample config count as missing.
func lookupKey(provider string, vars ...string) (string, error) {
	for _, v := range vars {
		key := strings.TrimSpace(os.Getenv(v))
		if key == "" {
			continue
		}
		if isPlaceholder(key) {
			return "", &ConfigError{Provider: provider, Var: v, Reason: "still holds a placeholder value"}
		}
		return key, nil
	}
	return "", &ConfigError{
		Provider: provider,
		Var:      strings.Join(vars, " (or ") + strings.Repeat(")", len(vars)-1),
		Reason:   "environment variable is not set",
	}
}

func isPlaceholder(key string) bool {
	upper := strings.ToUpper(key)
	return strings.HasPrefix(upper, "YOUR_") ||
		strings.HasSuffix(upper, "_HERE") ||
		upper == "CHANGEME" ||
		upper == "XXX"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
