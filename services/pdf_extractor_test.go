package services

import (
	"context"
	"strings"
	"testing"

	"pdf-rag-service/internal/pdftest"
	"pdf-rag-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSinglePage(t *testing.T) {
	doc := models.Document{ID: "hello.pdf", Data: pdftest.Build("Hello World")}

	text, err := NewPDFExtractor().Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", strings.TrimSpace(text))
}

func TestExtractSkipsEmptyPages(t *testing.T) {
	doc := models.Document{ID: "mixed.pdf", Data: pdftest.Build("First page", "", "Third page")}

	text, err := NewPDFExtractor().Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "First page\nThird page", text)
}

func TestExtractAllPagesEmpty(t *testing.T) {
	doc := models.Document{ID: "blank.pdf", Data: pdftest.Build("", "")}

	text, err := NewPDFExtractor().Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestExtractRejectsNonPDF(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"plaintext": []byte("this is not a pdf at all"),
		"truncated": pdftest.Build("Hello")[:40],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewPDFExtractor().Extract(context.Background(), models.Document{ID: name, Data: data})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrExtraction)
		})
	}
}
