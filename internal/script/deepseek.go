package script

import (
	"context"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
)

// DeepSeek talks to an OpenAI-compatible chat completion endpoint.
type DeepSeek struct {
	client *openai.Client
	model  string
}

func NewDeepSeek(apiKey, baseURL, model string) *DeepSeek {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &DeepSeek{client: openai.NewClientWithConfig(cfg), model: model}
}

func (d *DeepSeek) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	// go-openai omits a zero temperature from the request body.
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("deepseek chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
