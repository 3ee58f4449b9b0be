package services

import (
	"context"
	"fmt"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/vectorstore"
	"pdf-rag-service/models"
	"pdf-rag-service/utils"
)

// Retriever indexes a document's chunks and returns the texts most relevant
// to a query, best first.
type Retriever interface {
	Index(ctx context.Context, documentID string, chunks []models.Chunk) error
	Retrieve(ctx context.Context, query string) ([]string, error)
	Mode() string
}

// RetrieverHandle is the retriever chosen at startup plus the resources it
// owns.
type RetrieverHandle struct {
	Retriever
	closers []func() error
}

func (h *RetrieverHandle) Close() error {
	var firstErr error
	for _, c := range h.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewRetriever picks the retrieval strategy once for the life of the process.
// Vector mode needs a configured store, an embedding provider and a usable
// index; anything less falls back to keyword search over the local corpus.
func NewRetriever(ctx context.Context, cfg *config.Config) *RetrieverHandle {
	fallback := NewFallbackRetriever(NewCorpusStore(cfg.CorpusFile))

	if cfg.VectorStore == config.VectorStoreNone {
		logger.Warn("No vector store configured, using keyword fallback retrieval")
		return &RetrieverHandle{Retriever: fallback}
	}

	embedder, err := ai.NewEmbedder(ctx, cfg)
	if err != nil {
		logger.Warn("Embedding provider unavailable, using keyword fallback retrieval", "error", err)
		return &RetrieverHandle{Retriever: fallback}
	}

	store, err := vectorstore.Open(ctx, cfg)
	if err != nil {
		embedder.Close()
		logger.Warn("Vector store unavailable, using keyword fallback retrieval", "store", cfg.VectorStore, "error", err)
		return &RetrieverHandle{Retriever: fallback}
	}

	r, err := SelectRetriever(ctx, embedder, store, fallback, cfg.TopK)
	if err != nil {
		store.Close()
		embedder.Close()
		logger.Warn("Vector index unavailable, using keyword fallback retrieval", "store", cfg.VectorStore, "error", err)
		return &RetrieverHandle{Retriever: fallback}
	}

	logger.Info("Using vector retrieval", "store", cfg.VectorStore, "provider", cfg.EmbeddingsProvider, "dimension", embedder.Dimension())
	return &RetrieverHandle{Retriever: r, closers: []func() error{store.Close, embedder.Close}}
}

// SelectRetriever ensures the vector index exists and returns a vector
// retriever, or the error that should push the caller to fallback.
func SelectRetriever(ctx context.Context, embedder ai.Embedder, store vectorstore.Store, fallback Retriever, topK int) (Retriever, error) {
	if embedder == nil || store == nil {
		return fallback, fmt.Errorf("vector retrieval not configured")
	}

	ctx, cancel := utils.WithIndexSetupTimeout(ctx)
	defer cancel()

	if err := store.EnsureIndex(ctx, embedder.Dimension()); err != nil {
		return fallback, fmt.Errorf("failed to ensure vector index: %w", err)
	}
	return NewVectorRetriever(embedder, store, topK), nil
}
