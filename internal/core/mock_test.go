package core

import (
	"context"
	"sync"

	"github.com/agenthands/mindmap/internal/llm"
)

// MockLLM serves scripted responses in pop order. An error entry fails
// that call.
type MockLLM struct {
	Response      string
	Err           error
	ResponseQueue []any // string or error entries

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(m.ResponseQueue) > 0 {
		next := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		switch v := next.(type) {
		case error:
			return "", v
		case string:
			return v, nil
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockLLM) GenerateWithTools(ctx context.Context, prompt string, tools []llm.ToolSpec) (*llm.ToolResponse, error) {
	text, err := m.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &llm.ToolResponse{
		Calls: []llm.ToolCall{{Name: "emit_mindmap", Arguments: text}},
	}, nil
}

func (m *MockLLM) GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	text, err := m.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	// Emit in two chunks so accumulation is exercised.
	half := len(text) / 2
	if err := fn(text[:half]); err != nil {
		return err
	}
	return fn(text[half:])
}
