package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI implements Completer for the OpenAI chat completions API.
type OpenAI struct {
	apiKey  string
	model   string
	url     string
	retries int
	client  *http.Client
}

// NewOpenAI creates an OpenAI client from OPENAI_API_KEY.
func NewOpenAI(model string, opts Options) (*OpenAI, error) {
	key, err := lookupKey("openai", "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}
	return &OpenAI{
		apiKey:  key,
		model:   model,
		url:     openaiAPIURL,
		retries: opts.Retries,
		client:  httpClient(opts, 60*time.Second),
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	return chatComplete(ctx, o.client, o.Name(), o.url, o.apiKey, o.model, o.retries, req)
}

// chatComplete speaks the OpenAI chat completions dialect, which Ollama and
// LM Studio also serve.
func chatComplete(ctx context.Context, client *http.Client, provider, url, apiKey, model string, retries int, req CompletionRequest) (Completion, error) {
	var messages []openaiMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: req.UserPrompt})

	body := openaiRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens(req.MaxTokens),
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}
	if req.JSON {
		body.ResponseFormat = &openaiResponseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	respBody, err := postJSON(ctx, client, provider, url, headers, payload, retries)
	if err != nil {
		return Completion{}, err
	}

	if !gjson.GetBytes(respBody, "choices.0").Exists() {
		return Completion{}, &TransportError{Provider: provider, StatusCode: http.StatusOK, Body: string(respBody), Err: errors.New("no choices in response")}
	}
	content := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if content == "" {
		return Completion{}, &TransportError{Provider: provider, StatusCode: http.StatusOK, Body: string(respBody), Err: errors.New("empty text content in API response")}
	}
	return Completion{
		Content:    content,
		TokensUsed: int(gjson.GetBytes(respBody, "usage.total_tokens").Int()),
	}, nil
}

type openaiRequest struct {
	Model          string                `json:"model"`
	Messages       []openaiMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens"`
	Temperature    *float64              `json:"temperature,omitempty"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}
