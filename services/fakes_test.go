package services

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// keywordEmbedder maps text onto a fixed vocabulary so similar texts get
// similar vectors.
type keywordEmbedder struct {
	vocab     []string
	failOn    string
	batchErr  error
	embedCall int
}

func (e *keywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(e.vocab)+1)
	for i, w := range e.vocab {
		v[i] = float32(strings.Count(lower, w))
	}
	// keeps every vector non-zero
	v[len(e.vocab)] = 0.01
	return v
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.embedCall++
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, errors.New("provider rejected input")
	}
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if e.failOn != "" && strings.Contains(t, e.failOn) {
			return nil, errors.New("batch rejected")
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *keywordEmbedder) Dimension() int { return len(e.vocab) + 1 }

func (e *keywordEmbedder) Close() error { return nil }

// recordingCompleter echoes the user prompt and counts calls.
type recordingCompleter struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	err     error
}

func (c *recordingCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.prompts = append(c.prompts, userPrompt)
	if c.err != nil {
		return "", c.err
	}
	return userPrompt, nil
}
