package ai

import (
	"context"
	"fmt"

	"pdf-rag-service/internal/telemetry"

	"github.com/sashabaranov/go-openai"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAICompleter talks to any OpenAI-compatible chat completions API
// (OpenAI itself, Groq).
type OpenAICompleter struct {
	client  *openai.Client
	model   string
	metrics *telemetry.Metrics
}

func NewOpenAICompleter(apiKey, baseURL, model string, metrics *telemetry.Metrics) *OpenAICompleter {
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	return &OpenAICompleter{
		client:  openai.NewClientWithConfig(oc),
		model:   model,
		metrics: metrics,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat completion response")
	}

	c.metrics.RecordTokensUsed(int64(resp.Usage.TotalTokens), c.model)

	return resp.Choices[0].Message.Content, nil
}
