package services

import (
	"context"
	"errors"
	"fmt"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/vectorstore"
	"pdf-rag-service/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// VectorRetriever indexes chunk embeddings in a vector store and answers
// queries by nearest-neighbour search.
type VectorRetriever struct {
	embedder ai.Embedder
	store    vectorstore.Store
	topK     int
}

func NewVectorRetriever(embedder ai.Embedder, store vectorstore.Store, topK int) *VectorRetriever {
	if topK <= 0 {
		topK = 5
	}
	return &VectorRetriever{embedder: embedder, store: store, topK: topK}
}

func (r *VectorRetriever) Mode() string { return ModeVector }

// RecordID names the vector record of one chunk.
func RecordID(documentID string, index int) string {
	return fmt.Sprintf("%s_%d", documentID, index)
}

// Index embeds every chunk and upserts them together. If any embedding fails
// nothing is written and the error names the failing chunk.
func (r *VectorRetriever) Index(ctx context.Context, documentID string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ctx, span := otel.Tracer("services").Start(ctx, "retriever.index")
	defer span.End()
	span.SetAttributes(
		attribute.String("document_id", documentID),
		attribute.Int("chunks", len(chunks)),
	)

	texts := models.ChunkTexts(chunks)
	vectors, err := r.embedder.EmbedMany(ctx, texts)
	if err == nil && len(vectors) != len(chunks) {
		err = fmt.Errorf("embedding provider returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if err != nil {
		span.RecordError(err)
		return r.locateEmbedFailure(ctx, chunks, err)
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.Record{
			ID:     RecordID(documentID, c.Index),
			Vector: vectors[i],
			Metadata: map[string]any{
				"text":        c.Text,
				"document_id": documentID,
				"chunk_index": c.Index,
			},
		}
	}

	if err := r.store.Upsert(ctx, records); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to index %s: %w", documentID, err)
	}
	return nil
}

// locateEmbedFailure embeds chunks one at a time to find which one the
// provider rejects. It reports the batch error against chunk 0 if every
// single embedding succeeds.
func (r *VectorRetriever) locateEmbedFailure(ctx context.Context, chunks []models.Chunk, batchErr error) error {
	logger.Warn("Batch embedding failed, locating failing chunk", "chunks", len(chunks), "error", batchErr)

	if errors.Is(batchErr, context.Canceled) || errors.Is(batchErr, context.DeadlineExceeded) {
		return &ChunkEmbedError{Index: chunks[0].Index, Err: batchErr}
	}

	for _, c := range chunks {
		if _, err := r.embedder.Embed(ctx, c.Text); err != nil {
			return &ChunkEmbedError{Index: c.Index, Err: err}
		}
	}
	return &ChunkEmbedError{Index: chunks[0].Index, Err: batchErr}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	ctx, span := otel.Tracer("services").Start(ctx, "retriever.retrieve")
	defer span.End()

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: embedding query: %v", ErrProvider, err)
	}

	matches, err := r.store.Query(ctx, vector, r.topK)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := m.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	return texts, nil
}
