package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GeminiProvider calls Google Gemini through the generative-ai-go SDK
type GeminiProvider struct {
	apiKey      string
	logger      zerolog.Logger
	genaiClient *genai.Client
	mu          sync.Mutex
}

// NewGeminiProvider creates a Gemini provider. The SDK client is created on first use.
func NewGeminiProvider(apiKey string, logger zerolog.Logger) *GeminiProvider {
	return &GeminiProvider{
		apiKey: apiKey,
		logger: logger.With().Str("component", "gemini").Logger(),
	}
}

// Name implements Provider
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// getClient returns or creates a genai client (thread-safe)
func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.genaiClient != nil {
		return p.genaiClient, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	p.genaiClient = client
	p.logger.Info().Msg("Gemini client created and cached")
	return p.genaiClient, nil
}

// Close releases the SDK client
func (p *GeminiProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.genaiClient != nil {
		err := p.genaiClient.Close()
		p.genaiClient = nil
		if err != nil {
			p.logger.Error().Err(err).Msg("Failed to close Gemini client")
			return err
		}
		p.logger.Info().Msg("Gemini client closed")
	}
	return nil
}

// Complete implements Provider
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}

	var parts []genai.Part
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			model.SystemInstruction = genai.NewUserContent(genai.Text(m.Content))
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no user content in request")
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates from LLM")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content parts in response")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return text.String(), nil
}
