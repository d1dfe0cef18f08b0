package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// StatusError is returned when the completion endpoint answers with a non-2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Body)
}

// OpenRouterProvider calls an OpenAI-compatible chat completions endpoint
type OpenRouterProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewOpenRouterProvider creates a provider for baseURL (e.g. https://openrouter.ai/api/v1)
func NewOpenRouterProvider(apiKey, baseURL string, logger zerolog.Logger) *OpenRouterProvider {
	return &OpenRouterProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.With().Str("component", "openrouter").Logger(),
	}
}

// Name implements Provider
func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

// Complete implements Provider
func (p *OpenRouterProvider) Complete(ctx context.Context, req Request) (string, error) {
	jsonData, err := json.Marshal(chatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("response", string(body)).
			Str("model", req.Model).
			Msg("Completion API returned error")
		return "", &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	// OpenRouter reports some upstream failures inside a 200 body
	if parsed.Error != nil {
		return "", &StatusError{Code: parsed.Error.Code, Body: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return parsed.Choices[0].Message.Content, nil
}
