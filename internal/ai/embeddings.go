package ai

import (
	"context"
	"fmt"
	"sort"

	"pdf-rag-service/internal/config"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"
)

// Embedder maps text to fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Close() error
}

// NewEmbedder builds the embedding provider named by EMBEDDINGS_PROVIDER.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingsProvider {
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("missing OPENAI_API_KEY for embeddings")
		}
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, "", cfg.OpenAIEmbeddingsModel, cfg.VectorDimensions), nil

	case "google":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		return NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel, cfg.VectorDimensions)

	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	// requestDims is sent only when the caller asked for a reduced size
	requestDims int
}

// NewOpenAIEmbedder creates an embedder. An empty baseURL uses the public API.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimensions int) *OpenAIEmbedder {
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	if model == "" {
		model = "text-embedding-3-small"
	}

	e := &OpenAIEmbedder{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		dimensions:  dimensions,
		requestDims: dimensions,
	}
	if e.dimensions == 0 {
		e.dimensions = openAIDefaultDimensions(model)
	}
	return e
}

func openAIDefaultDimensions(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	default:
		return 1536
	}
}

func (e *OpenAIEmbedder) Dimension() int { return e.dimensions }

func (e *OpenAIEmbedder) Close() error { return nil }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, span := otel.Tracer("ai").Start(ctx, "openai.embeddings")
	defer span.End()
	span.SetAttributes(
		attribute.String("embedding.model", e.model),
		attribute.Int("embedding.inputs", len(texts)),
	)

	res, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:          texts,
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     e.requestDims,
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("embedding.error", true))
		return nil, fmt.Errorf("openai embeddings failed: %w", err)
	}
	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings returned %d vectors for %d inputs", len(res.Data), len(texts))
	}

	sort.Slice(res.Data, func(i, j int) bool { return res.Data[i].Index < res.Data[j].Index })

	out := make([][]float32, len(res.Data))
	for i, d := range res.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// GeminiEmbedder uses Google Generative AI (text-embedding-004 by default).
type GeminiEmbedder struct {
	client     *genai.Client
	model      *genai.EmbeddingModel
	name       string
	dimensions int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = "text-embedding-004"
	}
	if dimensions == 0 {
		dimensions = 768
	}
	return &GeminiEmbedder{
		client:     client,
		model:      client.EmbeddingModel(model),
		name:       model,
		dimensions: dimensions,
	}, nil
}

func (e *GeminiEmbedder) Dimension() int { return e.dimensions }

func (e *GeminiEmbedder) Close() error { return e.client.Close() }

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("ai").Start(ctx, "gemini.embed_content")
	defer span.End()
	span.SetAttributes(attribute.String("embedding.model", e.name))

	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings failed: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	// genai SDK returns []float32 for Embedding.Values
	return resp.Embedding.Values, nil
}

func (e *GeminiEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, span := otel.Tracer("ai").Start(ctx, "gemini.batch_embed_contents")
	defer span.End()
	span.SetAttributes(
		attribute.String("embedding.model", e.name),
		attribute.Int("embedding.inputs", len(texts)),
	)

	batch := e.model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := e.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embeddings failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
		out[i] = emb.Values
	}
	return out, nil
}
