package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/discord-summary-bot/internal/models"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Provider sends one completion request to a backend
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// CompletionError is returned when the completion service could not produce text
type CompletionError struct {
	Attempts int
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Client wraps a Provider with per-attempt timeouts and retries
type Client struct {
	provider    Provider
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	maxRetries  int
	backoff     time.Duration
	logger      zerolog.Logger
}

// NewClient creates a new completion client
func NewClient(provider Provider, config *models.BotConfig, logger zerolog.Logger) *Client {
	return &Client{
		provider:    provider,
		model:       config.LLMModel,
		temperature: config.LLMTemperature,
		maxTokens:   config.LLMMaxTokens,
		timeout:     config.LLMTimeoutDuration(),
		maxRetries:  config.LLMMaxRetries,
		backoff:     time.Duration(config.LLMRetryDelayMs) * time.Millisecond,
		logger:      logger.With().Str("component", "llm").Logger(),
	}
}

// NewProvider builds the provider selected by LLM_PROVIDER
func NewProvider(config *models.BotConfig, logger zerolog.Logger) (Provider, error) {
	switch config.LLMProvider {
	case "openrouter":
		return NewOpenRouterProvider(config.OpenRouterAPIKey, config.OpenRouterURL, logger), nil
	case "gemini":
		return NewGeminiProvider(config.GeminiAPIKey, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", config.LLMProvider)
	}
}

// Close releases provider resources when the provider holds any
func (c *Client) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Complete sends the system and user prompts and returns the generated text
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	startTime := time.Now()

	req := Request{
		Model: c.model,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	text, attempts, err := c.completeWithRetry(ctx, req)
	if err != nil {
		return "", &CompletionError{Attempts: attempts, Err: err}
	}

	c.logger.Info().
		Str("provider", c.provider.Name()).
		Str("model", c.model).
		Int("attempts", attempts).
		Int("response_length", len([]rune(text))).
		Dur("duration", time.Since(startTime)).
		Msg("Completion generated successfully")

	return text, nil
}

// completeWithRetry retries timeouts and server errors with a fixed backoff
func (c *Client) completeWithRetry(ctx context.Context, req Request) (string, int, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn().
				Int("attempt", attempt+1).
				Dur("backoff", c.backoff).
				Str("model", req.Model).
				Msg("Retrying completion request")

			select {
			case <-ctx.Done():
				return "", attempts, ctx.Err()
			case <-time.After(c.backoff):
			}
		}

		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := c.provider.Complete(attemptCtx, req)
		cancel()
		if err == nil {
			return text, attempts, nil
		}

		lastErr = err
		c.logger.Error().
			Err(err).
			Int("attempt", attempt+1).
			Str("provider", c.provider.Name()).
			Str("model", req.Model).
			Msg("Completion request failed")

		if ctx.Err() != nil || !isRetryable(err) {
			break
		}
	}

	return "", attempts, lastErr
}

// isRetryable reports whether err is a timeout or a server-side failure
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.Internal, codes.DeadlineExceeded:
			return true
		}
	}

	return false
}
