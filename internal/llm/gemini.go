package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if the provider is properly configured
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	model := p.client.GenerativeModel(p.model())
	_, err := model.GenerateContent(ctx, genai.Text("Hi"))
	return err == nil
}

// Generate produces text using the Gemini API
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	model := p.client.GenerativeModel(p.model())
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(int32(p.config.maxTokens()))

	resp, err := model.GenerateContent(ctxWithTimeout, genai.Text(systemPrompt+"\n\n"+prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	return extractGeminiText(resp)
}

// Close releases the underlying gRPC client
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func (p *GeminiProvider) model() string {
	if p.config.Model != "" {
		return p.config.Model
	}
	return "gemini-1.5-flash"
}

// extractGeminiText extracts the text parts from a Gemini response
func extractGeminiText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in Gemini response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return out, nil
}
