package services

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"pdf-rag-service/internal/pdftest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageStoresPDF(t *testing.T) {
	sm, err := NewFileStorageManager(t.TempDir())
	require.NoError(t, err)

	data := pdftest.Build("stored")
	file, err := sm.Store(bytes.NewReader(data), "My Report.PDF")
	require.NoError(t, err)

	assert.Equal(t, int64(len(data)), file.Size)
	assert.True(t, strings.HasSuffix(file.SecureName, "_My_Report.pdf"))
	assert.Len(t, file.Hash, 64)

	got, err := sm.Read(file.Path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	sm.Cleanup(file.Path)
	_, err = os.Stat(file.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorageRejectsNonPDF(t *testing.T) {
	sm, err := NewFileStorageManager(t.TempDir())
	require.NoError(t, err)

	_, err = sm.Store(strings.NewReader("hello"), "fake.pdf")
	assert.ErrorIs(t, err, ErrExtraction)

	_, err = sm.Store(strings.NewReader(""), "empty.pdf")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload("a.pdf", 10, 100))
	assert.ErrorIs(t, ValidateUpload("", 10, 100), ErrValidation)
	assert.ErrorIs(t, ValidateUpload("a.docx", 10, 100), ErrValidation)
	assert.ErrorIs(t, ValidateUpload("a.pdf", 0, 100), ErrValidation)
	assert.ErrorIs(t, ValidateUpload("a.pdf", 101, 100), ErrValidation)
}
