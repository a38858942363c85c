package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LLMConfig configures one provider/model pair. Read-only after generation
// starts.
type LLMConfig struct {
	Provider       string   `toml:"provider"`
	Model          string   `toml:"model"`
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	Temperature    *float32 `toml:"temperature"`
	JSONMode       bool     `toml:"json_mode"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// LLMPair holds the base model used for generation and the (possibly
// higher-capability) reasoning model used for refinement. An empty
// reasoning block falls back to the base model.
type LLMPair struct {
	Base      LLMConfig `toml:"base"`
	Reasoning LLMConfig `toml:"reasoning"`
}

// DispatchConfig bounds the invocation layer.
type DispatchConfig struct {
	Limit       int    `toml:"limit"`
	MaxAttempts int    `toml:"max_attempts"`
	Strategy    string `toml:"strategy"` // "semaphore" or "pool"
}

// PromptTemplate overrides fragments of a registered template. Empty
// fields keep the built-in defaults.
type PromptTemplate struct {
	Qualifier        string `toml:"qualifier"`
	UserMessage      string `toml:"user_message"`
	Instructions     string `toml:"instructions"`
	EnforceStructure string `toml:"enforce_structure"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type OutputConfig struct {
	Dir string `toml:"dir"`
}

type Config struct {
	LLM      LLMPair                   `toml:"llm"`
	Dispatch DispatchConfig            `toml:"dispatch"`
	Prompts  map[string]PromptTemplate `toml:"prompts"`
	Memgraph MemgraphConfig            `toml:"memgraph"`
	Output   OutputConfig              `toml:"output"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if cfg.LLM.Reasoning.Provider == "" && cfg.LLM.Reasoning.Model == "" {
		cfg.LLM.Reasoning = cfg.LLM.Base
	}
	return &cfg, nil
}
