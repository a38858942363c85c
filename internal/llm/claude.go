package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

const claudeMaxTokens = 4096

type ClaudeClient struct {
	client      *anthropic.Client
	model       string
	temperature *float32
}

func NewClaudeClient(apiKey, model, baseURL string, temperature *float32) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeClient{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       model,
		temperature: temperature,
	}
}

func (c *ClaudeClient) request(prompt string) anthropic.MessagesRequest {
	req := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: claudeMaxTokens,
	}
	req.Temperature = c.temperature
	return req
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateMessages(ctx, c.request(prompt))
	if err != nil {
		return "", Classify(err)
	}
	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", &CallError{Kind: KindTransport, Err: fmt.Errorf("no response content")}
}

func (c *ClaudeClient) GenerateWithTools(ctx context.Context, prompt string, tools []ToolSpec) (*ToolResponse, error) {
	req := c.request(prompt)
	for _, t := range tools {
		req.Tools = append(req.Tools, anthropic.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return nil, Classify(err)
	}

	out := &ToolResponse{}
	for _, content := range resp.Content {
		if content.Text != nil {
			out.Text += *content.Text
		}
		if content.MessageContentToolUse != nil {
			out.Calls = append(out.Calls, ToolCall{
				Name:      content.MessageContentToolUse.Name,
				Arguments: string(content.MessageContentToolUse.Input),
			})
		}
	}
	return out, nil
}

func (c *ClaudeClient) GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	var callbackErr error
	req := anthropic.MessagesStreamRequest{
		MessagesRequest: c.request(prompt),
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if callbackErr != nil || data.Delta.Text == nil {
				return
			}
			callbackErr = fn(*data.Delta.Text)
		},
	}
	if _, err := c.client.CreateMessagesStream(ctx, req); err != nil {
		return Classify(err)
	}
	return callbackErr
}
