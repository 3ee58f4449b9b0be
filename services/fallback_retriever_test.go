package services

import (
	"context"
	"path/filepath"
	"testing"

	"pdf-rag-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankByKeywordsOrdersByScoreStably(t *testing.T) {
	texts := []string{
		"Cats are small.",
		"Dogs bark loudly.",
		"Dogs and cats are pets.",
	}

	got := RankByKeywords("dogs cats", texts, 5)
	assert.Equal(t, []string{
		"Dogs and cats are pets.",
		"Cats are small.",
		"Dogs bark loudly.",
	}, got)
}

func TestRankByKeywordsSingleKeyword(t *testing.T) {
	texts := []string{"cats are great", "dogs are loyal", "cats and dogs"}

	got := RankByKeywords("cats", texts, 5)
	assert.Equal(t, []string{"cats are great", "cats and dogs", "dogs are loyal"}, got)
}

func TestRankByKeywordsIgnoresShortWords(t *testing.T) {
	texts := []string{"an apple", "is it ok", "banana split"}

	got := RankByKeywords("is it an banana", texts, 1)
	assert.Equal(t, []string{"banana split"}, got)
}

func TestRankByKeywordsTopK(t *testing.T) {
	texts := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"}
	got := RankByKeywords("nothing matches", texts, 5)
	assert.Equal(t, texts[:5], got)
}

func TestFallbackRetrieverEmptyCorpus(t *testing.T) {
	r := NewFallbackRetriever(NewCorpusStore(filepath.Join(t.TempDir(), "corpus.json.gz")))

	texts, err := r.Retrieve(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestFallbackRetrieverReplacesCorpus(t *testing.T) {
	ctx := context.Background()
	r := NewFallbackRetriever(NewCorpusStore(filepath.Join(t.TempDir(), "nested", "corpus.json.gz")))

	require.NoError(t, r.Index(ctx, "first.pdf", []models.Chunk{{Index: 0, Text: "alpha content"}}))
	require.NoError(t, r.Index(ctx, "second.pdf", []models.Chunk{
		{Index: 0, Text: "beta content"},
		{Index: 1, Text: "gamma content"},
	}))

	texts, err := r.Retrieve(ctx, "gamma")
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma content", "beta content"}, texts)
}

func TestCorpusStorePlainJSON(t *testing.T) {
	store := NewCorpusStore(filepath.Join(t.TempDir(), "corpus.json"))
	require.NoError(t, store.Replace("doc.pdf", []models.Chunk{{Index: 0, Text: "plain"}}))

	corpus, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "doc.pdf", corpus.DocumentID)
	assert.Equal(t, []models.Chunk{{Index: 0, Text: "plain"}}, corpus.Chunks)
}
