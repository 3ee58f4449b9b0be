package services

import (
	"errors"
	"fmt"

	"pdf-rag-service/internal/vectorstore"
)

var (
	// ErrValidation marks a malformed request.
	ErrValidation = errors.New("validation error")
	// ErrExtraction marks a document that could not be parsed as PDF.
	ErrExtraction = errors.New("extraction error")
	// ErrProvider marks a failed embedding or language model call.
	ErrProvider = errors.New("provider error")
	// ErrStoreUnavailable marks an unreachable vector store.
	ErrStoreUnavailable = vectorstore.ErrStoreUnavailable
)

// ChunkEmbedError reports the first chunk whose embedding failed. The
// ingestion is aborted and nothing from the document is indexed.
type ChunkEmbedError struct {
	Index int
	Err   error
}

func (e *ChunkEmbedError) Error() string {
	return fmt.Sprintf("embedding chunk %d failed: %v", e.Index, e.Err)
}

func (e *ChunkEmbedError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}
