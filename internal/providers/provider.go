package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CompletionRequest is the prompt sent to a model.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	// JSON asks the provider for a JSON-only reply where the API supports it.
	JSON bool
}

// Completion is the raw text a model returned.
type Completion struct {
	Content    string
	TokensUsed int
}

// Completer is the provider abstraction.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
	Name() string
}

// Options tune a provider client.
type Options struct {
	// Retries bounds how many times a rate-limited or 5xx request is
	// repeated. Zero sends each request once.
	Retries int
	// Timeout applies to each HTTP attempt. Zero uses the provider default.
	Timeout time.Duration
}

// New creates a provider by name.
func New(provider, model string, opts Options) (Completer, error) {
	switch provider {
	case "gemini", "google":
		return NewGemini(model, opts)
	case "anthropic":
		return NewAnthropic(model, opts)
	case "openai":
		return NewOpenAI(model, opts)
	case "ollama", "lmstudio":
		return NewOllama(model, opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// Names lists the provider names New accepts, aliases excluded.
func Names() []string {
	return []string{"gemini", "anthropic", "openai", "ollama"}
}

func httpClient(opts Options, def time.Duration) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = def
	}
	return &http.Client{Timeout: timeout}
}

func maxTokens(n int) int {
	if n <= 0 {
		return 2048
	}
	return n
}
