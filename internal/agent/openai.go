package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openaiBaseURL     = "https://api.openai.com/v1"
	openaiTimeout     = 60 * time.Second
	openaiMaxBodySize = 4 << 20 // 4 MB
	openaiMaxTokens   = 2000
	openaiTemperature = 0.7
)

// OpenAIProvider calls the OpenAI chat completions API.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai (set OPENAI_API_KEY or run setup)", ErrNotConfigured)
	}
	if model == "" {
		model = "gpt-4"
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: openaiBaseURL,
		http:    &http.Client{},
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

// Generate implements Provider.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, openaiTimeout)
	defer cancel()

	payload, err := json.Marshal(openaiRequest{
		Model:       p.model,
		Messages:    []openaiMessage{{Role: "user", Content: prompt}},
		MaxTokens:   openaiMaxTokens,
		Temperature: openaiTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, openaiMaxBodySize))
	if err != nil {
		return "", fmt.Errorf("openai: reading response: %w", err)
	}

	var parsed openaiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("openai: parsing response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choice set")
	}

	return CleanFences(parsed.Choices[0].Message.Content), nil
}
