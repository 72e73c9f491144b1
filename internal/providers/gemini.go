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

const geminiAPIURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Gemini implements Completer for Google's Gemini API.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	retries int
	client  *http.Client
}

// NewGemini creates a Gemini client from GEMINI_API_KEY or GOOGLE_API_KEY.
func NewGemini(model string, opts Options) (*Gemini, error) {
	key, err := lookupKey("gemini", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	if err != nil {
		return nil, err
	}
	return &Gemini{
		apiKey:  key,
		model:   model,
		baseURL: geminiAPIURL,
		retries: opts.Retries,
		client:  httpClient(opts, 60*time.Second),
	}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.UserPrompt}}},
		},
		GenerationConfig: &geminiGenConfig{MaxOutputTokens: maxTokens(req.MaxTokens)},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if req.Temperature > 0 {
		body.GenerationConfig.Temperature = &req.Temperature
	}
	if req.JSON {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, g.model)
	respBody, err := postJSON(ctx, g.client, g.Name(), url, map[string]string{"x-goog-api-key": g.apiKey}, payload, g.retries)
	if err != nil {
		return Completion{}, err
	}

	var parts []string
	for _, p := range gjson.GetBytes(respBody, "candidates.0.content.parts.#.text").Array() {
		parts = append(parts, p.String())
	}
	content := strings.Join(parts, "")
	if content == "" {
		reason := gjson.GetBytes(respBody, "promptFeedback.blockReason").String()
		if reason == "" {
			reason = "no content in response"
		} else {
			reason = "prompt blocked: " + reason
		}
		return Completion{}, &TransportError{Provider: g.Name(), StatusCode: http.StatusOK, Body: string(respBody), Err: errors.New(reason)}
	}

	return Completion{
		Content:    content,
		TokensUsed: int(gjson.GetBytes(respBody, "usageMetadata.totalTokenCount").Int()),
	}, nil
}

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}
