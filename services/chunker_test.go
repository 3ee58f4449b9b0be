package services

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func distinctWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	return words
}

func TestChunkerEmptyInput(t *testing.T) {
	c := NewChunker(500, 50)
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
}

func TestChunkerSizeBound(t *testing.T) {
	c := NewChunker(120, 30)
	text := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing ", 60)

	chunks := c.Split(text)
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.NotEmpty(t, ch.Text)
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 120)
	}
}

func TestChunkerReconstructsDistinctWords(t *testing.T) {
	words := distinctWords(700)
	chunks := NewChunker(200, 40).Split(strings.Join(words, " "))
	require.Greater(t, len(chunks), 1)

	seen := make(map[string]bool)
	var rebuilt []string
	for _, ch := range chunks {
		for _, w := range strings.Fields(ch.Text) {
			if !seen[w] {
				seen[w] = true
				rebuilt = append(rebuilt, w)
			}
		}
	}
	assert.Equal(t, words, rebuilt)
}

func TestChunkerCarriesOverlap(t *testing.T) {
	words := distinctWords(1200)
	chunks := NewChunker(500, 50).Split(strings.Join(words, " "))
	require.GreaterOrEqual(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		next := strings.Fields(chunks[i].Text)
		last := prev[len(prev)-1]

		assert.Contains(t, next, last, "chunk %d should repeat the tail of chunk %d", i, i-1)
		assert.Contains(t, prev, next[0], "chunk %d should start inside chunk %d", i, i-1)
	}
}

func TestChunkerZeroOverlap(t *testing.T) {
	words := distinctWords(300)
	chunks := NewChunker(100, 0).Split(strings.Join(words, " "))

	var all []string
	for _, ch := range chunks {
		all = append(all, strings.Fields(ch.Text)...)
	}
	assert.Equal(t, words, all)
}

func TestChunkerSplitsOversizedWords(t *testing.T) {
	long := strings.Repeat("x", 25)
	chunks := NewChunker(10, 2).Split("a " + long + " b")

	xs := 0
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 10)
		xs += strings.Count(ch.Text, "x")
	}
	assert.Equal(t, 25, xs)
	assert.Equal(t, "a", chunks[0].Text)
	assert.Equal(t, "xxxxx b", chunks[len(chunks)-1].Text)
}

func TestNewChunkerClampsOverlap(t *testing.T) {
	assert.Equal(t, 0, NewChunker(100, -5).Overlap)
	assert.Equal(t, 50, NewChunker(100, 100).Overlap)
	assert.Equal(t, 50, NewChunker(100, 400).Overlap)

	c := NewChunker(0, 0)
	assert.Equal(t, DefaultChunkSize, c.Size)
}

func TestChunkerCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("žluťoučký ", 30)
	for _, ch := range NewChunker(50, 10).Split(text) {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 50)
	}
}
