package providers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements Completer for Ollama and LM Studio through their
// OpenAI-compatible endpoint. No API key is required.
type Ollama struct {
	apiKey  string
	model   string
	url     string
	retries int
	client  *http.Client
}

// NewOllama creates a local-model client. OLLAMA_HOST overrides the server
// address; POSTGUARD_OLLAMA_API_KEY is sent when set.
func NewOllama(model string, opts Options) (*Ollama, error) {
	return &Ollama{
		apiKey:  os.Getenv("POSTGUARD_OLLAMA_API_KEY"),
		model:   model,
		url:     ollamaEndpoint(os.Getenv("OLLAMA_HOST")),
		retries: opts.Retries,
		client:  httpClient(opts, 180*time.Second),
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	return chatComplete(ctx, o.client, o.Name(), o.url, o.apiKey, o.model, o.retries, req)
}

// ollamaEndpoint normalises a host setting to the chat completions URL,
// accepting bare hosts and URLs that already carry /v1 or the full path.
func ollamaEndpoint(host string) string {
	if host == "" {
		host = defaultOllamaURL
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	host = strings.TrimRight(host, "/")
	host = strings.TrimSuffix(host, "/v1/chat/completions")
	host = strings.TrimSuffix(host, "/v1")
	return host + "/v1/chat/completions"
}
