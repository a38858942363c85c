package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/mindmap/internal/config"
)

// DefaultProvider is assumed when a model spec carries no "provider::"
// prefix.
const DefaultProvider = "openai"

// ParseSpec splits a "<provider>::<model>" identifier. A bare model name
// resolves to the default provider.
func ParseSpec(spec string) (provider, model string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", &ConfigurationError{Reason: "empty model spec"}
	}
	if !strings.Contains(spec, "::") {
		return DefaultProvider, spec, nil
	}
	parts := strings.SplitN(spec, "::", 2)
	if parts[0] == "" || parts[1] == "" {
		return "", "", &ConfigurationError{Reason: fmt.Sprintf("invalid model spec %q", spec)}
	}
	return strings.ToLower(parts[0]), parts[1], nil
}

type builder func(ctx context.Context, cfg config.LLMConfig) (LLMClient, error)

// providers is the name-keyed adapter registry.
var providers = map[string]builder{
	"openai": newOpenAI,
	"claude": newClaude,
	"gemini": newGemini,
	"ollama": newOllama,
}

// NewClient instantiates the provider adapter named by cfg.Provider.
// Configuration problems surface as ConfigurationError before any call is
// attempted.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	provider := strings.ToLower(cfg.Provider)
	build, ok := providers[provider]
	if !ok {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported llm provider %q", cfg.Provider)}
	}
	if cfg.Model == "" {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("no model configured for provider %q", provider)}
	}
	return build(ctx, cfg)
}

func newOpenAI(_ context.Context, cfg config.LLMConfig) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Reason: "openai provider requires an api key"}
	}
	return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature, cfg.JSONMode), nil
}

func newClaude(_ context.Context, cfg config.LLMConfig) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Reason: "claude provider requires an api key"}
	}
	return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature), nil
}

func newGemini(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Reason: "gemini provider requires an api key"}
	}
	return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
}

// newOllama routes through the OpenAI-compatible API so the adapter gets
// usage tracking for free. The api key is ignored by Ollama but required by
// the client config.
func newOllama(_ context.Context, cfg config.LLMConfig) (LLMClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "ollama"
	}
	return NewOpenAIClient(apiKey, cfg.Model, baseURL, cfg.Temperature, cfg.JSONMode), nil
}
