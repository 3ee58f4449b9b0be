package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdf-rag-service/internal/logger"

	"github.com/google/uuid"
)

var pdfMagic = []byte("%PDF")

// FileStorageManager keeps uploads on local disk until a worker ingests them.
type FileStorageManager struct {
	uploadDir string
	tempDir   string
}

// StoredFile describes an upload written by Store.
type StoredFile struct {
	Path       string
	SecureName string
	Hash       string
	Size       int64
}

func NewFileStorageManager(baseDir string) (*FileStorageManager, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}

	uploadDir := filepath.Join(baseDir, "pdfs")
	tempDir := filepath.Join(baseDir, "temp")
	for _, dir := range []string{uploadDir, tempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	return &FileStorageManager{uploadDir: uploadDir, tempDir: tempDir}, nil
}

// ValidateUpload checks the name and size of an upload before it is read.
func ValidateUpload(filename string, size, maxSize int64) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return fmt.Errorf("%w: only PDF files are accepted", ErrValidation)
	}
	if size == 0 {
		return fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: file exceeds maximum size of %d bytes", ErrValidation, maxSize)
	}
	return nil
}

// Store streams r to a temp file, checks the PDF header and moves the file
// into the upload directory under a collision-free name.
func (sm *FileStorageManager) Store(r io.Reader, originalName string) (*StoredFile, error) {
	secureName := generateSecureFilename(originalName)
	filePath := filepath.Join(sm.uploadDir, secureName)

	tempPath := filepath.Join(sm.tempDir, uuid.NewString()+".tmp")
	tempFile, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	hasher := sha256.New()
	header := &headerCapture{limit: len(pdfMagic)}
	written, err := io.Copy(io.MultiWriter(tempFile, hasher, header), r)
	if err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	if written == 0 {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if !bytes.Equal(header.buf, pdfMagic) {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: missing PDF header", ErrExtraction)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to move file to final location: %w", err)
	}

	return &StoredFile{
		Path:       filePath,
		SecureName: secureName,
		Hash:       hex.EncodeToString(hasher.Sum(nil)),
		Size:       written,
	}, nil
}

// Read loads a stored upload.
func (sm *FileStorageManager) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return data, nil
}

// Cleanup removes a file from storage
func (sm *FileStorageManager) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to cleanup file", "path", path, "error", err)
	}
}

func generateSecureFilename(originalName string) string {
	timestamp := time.Now().Format("20060102_150405")

	ext := filepath.Ext(originalName)
	baseName := strings.TrimSuffix(filepath.Base(originalName), ext)

	safeName := strings.ReplaceAll(baseName, " ", "_")
	safeName = strings.ReplaceAll(safeName, "..", "")
	if len(safeName) > 50 {
		safeName = safeName[:50]
	}

	return fmt.Sprintf("%s_%s_%s%s", timestamp, uuid.NewString()[:8], safeName, strings.ToLower(ext))
}

// headerCapture records the first limit bytes written through it.
type headerCapture struct {
	limit int
	buf   []byte
}

func (h *headerCapture) Write(p []byte) (int, error) {
	if need := h.limit - len(h.buf); need > 0 {
		if need > len(p) {
			need = len(p)
		}
		h.buf = append(h.buf, p[:need]...)
	}
	return len(p), nil
}
