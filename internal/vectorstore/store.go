package vectorstore

import (
	"context"
	"errors"
)

// ErrStoreUnavailable is returned when the backing vector database cannot be
// reached or rejects the request.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// Record is a vector plus metadata stored under a caller-chosen id.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// Match is a query hit.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Text returns the "text" metadata field, or "" when absent.
func (m Match) Text() string {
	if s, ok := m.Metadata["text"].(string); ok {
		return s
	}
	return ""
}

// Store persists embeddings and answers nearest-neighbour queries by cosine
// similarity. Upserting an existing id replaces the record.
type Store interface {
	EnsureIndex(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Close() error
}
