package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCompleter struct {
	calls int
}

func (f *failingCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return "", errors.New("upstream exploded")
}

type echoCompleter struct{}

func (echoCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return userPrompt, nil
}

func TestGuardedCompleterPassesThrough(t *testing.T) {
	g := NewGuardedCompleter("test", echoCompleter{}, 600, nil)

	out, err := g.Complete(context.Background(), "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestGuardedCompleterOpensAfterFailures(t *testing.T) {
	inner := &failingCompleter{}
	g := NewGuardedCompleter("test", inner, 600, nil)

	for i := 0; i < 3; i++ {
		_, err := g.Complete(context.Background(), "", "q")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}

	_, err := g.Complete(context.Background(), "", "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, inner.calls, "open breaker must not reach the provider")
}

func TestOpenAICompleterSendsSystemAndUserPrompts(t *testing.T) {
	var received struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "llama-3.1-8b-instant",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Revenue grew."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter("test-key", srv.URL+"/v1", "llama-3.1-8b-instant", nil)
	out, err := c.Complete(context.Background(), "be brief", "what happened?")
	require.NoError(t, err)

	assert.Equal(t, "Revenue grew.", out)
	assert.Equal(t, "llama-3.1-8b-instant", received.Model)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, "system", received.Messages[0].Role)
	assert.Equal(t, "be brief", received.Messages[0].Content)
	assert.Equal(t, "user", received.Messages[1].Role)
	assert.Equal(t, "what happened?", received.Messages[1].Content)
}

func TestOpenAICompleterSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter("bad", srv.URL+"/v1", "gpt-4o-mini", nil)
	_, err := c.Complete(context.Background(), "", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}
