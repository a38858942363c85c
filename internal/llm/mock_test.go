package llm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MockLLM serves scripted responses. With a ResponseQueue each call pops
// the next entry; an entry that is an error is returned as the call's
// failure. It also tracks in-flight concurrency for the dispatcher tests.
type MockLLM struct {
	Response      string
	Err           error
	ResponseQueue []any // string or error entries
	Delay         time.Duration

	mu          sync.Mutex
	calls       int32
	inFlight    int32
	maxInFlight int32
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	cur := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		max := atomic.LoadInt32(&m.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&m.maxInFlight, max, cur) {
			break
		}
	}
	atomic.AddInt32(&m.calls, 1)

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *MockLLM) GenerateWithTools(ctx context.Context, prompt string, tools []ToolSpec) (*ToolResponse, error) {
	text, err := m.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &ToolResponse{Text: text}, nil
}

func (m *MockLLM) GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	text, err := m.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	return fn(text)
}

func (m *MockLLM) Calls() int       { return int(atomic.LoadInt32(&m.calls)) }
func (m *MockLLM) MaxInFlight() int { return int(atomic.LoadInt32(&m.maxInFlight)) }
