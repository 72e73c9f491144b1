package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
)

// Anthropic implements Completer for Anthropic's Messages API.
type Anthropic struct {
	apiKey  string
	model   string
	url     string
	retries int
	client  *http.Client
}

// NewAnthropic creates an Anthropic client from ANTHROPIC_API_KEY.
func NewAnthropic(model string, opts Options) (*Anthropic, error) {
	key, err := lookupKey("anthropic", "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}
	return &Anthropic{
		apiKey:  key,
		model:   model,
		url:     anthropicAPIURL,
		retries: opts.Retries,
		client:  httpClient(opts, 60*time.Second),
	}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: maxTokens(req.MaxTokens),
		System:    req.SystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: req.UserPrompt}},
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicAPIVersion,
	}
	respBody, err := postJSON(ctx, a.client, a.Name(), a.url, headers, payload, a.retries)
	if err != nil {
		return Completion{}, err
	}

	var parts []string
	for _, t := range gjson.GetBytes(respBody, `content.#(type=="text")#.text`).Array() {
		parts = append(parts, t.String())
	}
	content := strings.Join(parts, "")
	if content == "" {
		return Completion{}, &TransportError{Provider: a.Name(), StatusCode: http.StatusOK, Body: string(respBody), Err: errors.New("empty text content in API response")}
	}

	usage := gjson.GetBytes(respBody, "usage")
	return Completion{
		Content:    content,
		TokensUsed: int(usage.Get("input_tokens").Int() + usage.Get("output_tokens").Int()),
	}, nil
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
