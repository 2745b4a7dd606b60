package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/okarpov/claimlens/internal/model"
)

// NewProvider creates a provider client from its configuration
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	switch strings.ToLower(config.Name) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "gemini":
		return NewGeminiProvider(ctx, config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, anthropic, gemini, ollama)", config.Name)
	}
}

// BuildCascade resolves an ordered provider name list against the configured
// providers, constructing clients in cascade priority order. Names without a
// configuration are skipped; construction errors (usually a missing API key)
// skip that provider rather than failing the cascade.
func BuildCascade(ctx context.Context, order []string, cfg *model.Config) ([]Provider, error) {
	var providers []Provider
	var skipped []string

	for _, name := range order {
		pc, ok := cfg.Providers.Provider(name)
		if !ok {
			skipped = append(skipped, name)
			continue
		}

		p, err := NewProvider(ctx, ConfigFromModel(pc, cfg.HTTP))
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s (%v)", name, err))
			continue
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no usable providers in cascade order %v (skipped: %s)", order, strings.Join(skipped, "; "))
	}
	return providers, nil
}
