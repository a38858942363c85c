package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature *float32
}

func NewGeminiClient(ctx context.Context, apiKey, model string, temperature *float32) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

func (c *GeminiClient) generativeModel() *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.model)
	if c.temperature != nil {
		model.SetTemperature(*c.temperature)
	}
	return model
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generativeModel().GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", Classify(err)
	}
	if text := geminiText(resp); text != "" {
		return text, nil
	}
	return "", &CallError{Kind: KindTransport, Err: fmt.Errorf("no response candidates or content")}
}

// GenerateWithTools is not offered by this adapter; callers detect the
// missing capability through the typed error rather than a panic.
func (c *GeminiClient) GenerateWithTools(ctx context.Context, prompt string, tools []ToolSpec) (*ToolResponse, error) {
	return nil, &CallError{
		Kind: KindMalformed,
		Err:  errors.New("tool calls not supported by the gemini adapter"),
	}
}

func (c *GeminiClient) GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	iter := c.generativeModel().GenerateContentStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return Classify(err)
		}
		if chunk := geminiText(resp); chunk != "" {
			if err := fn(chunk); err != nil {
				return err
			}
		}
	}
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	text := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text += string(txt)
		}
	}
	return text
}
