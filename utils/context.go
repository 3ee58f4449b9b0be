package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds store and provider setup calls
	DefaultTimeout = 10 * time.Second

	// IngestTimeout bounds a full extract-chunk-index run
	IngestTimeout = 2 * time.Minute

	// AskTimeout bounds retrieval plus answer generation
	AskTimeout = 60 * time.Second

	// IndexSetupTimeout bounds creating a vector index at startup
	IndexSetupTimeout = 90 * time.Second

	ShortTimeout = 2 * time.Second
)

// WithTimeout creates a context with default timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

func WithIngestTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, IngestTimeout)
}

func WithAskTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, AskTimeout)
}

func WithIndexSetupTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, IndexSetupTimeout)
}

// WithShortTimeout creates a context with short timeout for quick operations
func WithShortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ShortTimeout)
}
