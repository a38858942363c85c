package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature *float32
	jsonMode    bool
}

func NewOpenAIClient(apiKey, model, baseURL string, temperature *float32, jsonMode bool) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		jsonMode:    jsonMode,
	}
}

func (c *OpenAIClient) request(prompt string) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if c.temperature != nil {
		req.Temperature = *c.temperature
	}
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(prompt))
	if err != nil {
		return "", Classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &CallError{Kind: KindTransport, Err: fmt.Errorf("no response choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) GenerateWithTools(ctx context.Context, prompt string, tools []ToolSpec) (*ToolResponse, error) {
	req := c.request(prompt)
	for _, t := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, Classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &CallError{Kind: KindTransport, Err: fmt.Errorf("no response choices")}
	}
	msg := resp.Choices[0].Message
	out := &ToolResponse{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.Calls = append(out.Calls, ToolCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func (c *OpenAIClient) GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(prompt))
	if err != nil {
		return Classify(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return Classify(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if chunk := resp.Choices[0].Delta.Content; chunk != "" {
			if err := fn(chunk); err != nil {
				return err
			}
		}
	}
}
