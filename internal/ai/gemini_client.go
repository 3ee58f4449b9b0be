package ai

import (
	"context"
	"fmt"
	"strings"

	"pdf-rag-service/internal/telemetry"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiCompleter struct {
	client  *genai.Client
	model   string
	metrics *telemetry.Metrics
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string, metrics *telemetry.Metrics) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiCompleter{
		client:  client,
		model:   model,
		metrics: metrics,
	}, nil
}

func (gc *GeminiCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	model := gc.client.GenerativeModel(gc.model)
	model.SetTemperature(0.2)
	model.SetMaxOutputTokens(2048)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	if resp.UsageMetadata != nil {
		gc.metrics.RecordTokensUsed(int64(resp.UsageMetadata.TotalTokenCount), gc.model)
	}

	return responseText(resp)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in gemini response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close the client
func (gc *GeminiCompleter) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
