package llm

import (
	"context"
)

// LLMClient is the provider capability the engine depends on. Providers are
// polymorphic over plain, tool-call and streaming responses; the core never
// branches on a provider name outside the factory.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithTools(ctx context.Context, prompt string, tools []ToolSpec) (*ToolResponse, error)
	GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error
}

// ToolSpec describes one callable operation, kept separate from the
// natural-language prompt it accompanies.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is one invocation the model requested.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResponse carries plain text, requested tool calls, or both.
type ToolResponse struct {
	Text  string     `json:"text,omitempty"`
	Calls []ToolCall `json:"calls,omitempty"`
}
