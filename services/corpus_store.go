package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pdf-rag-service/models"
	"pdf-rag-service/utils"
)

// Corpus is the persisted chunk list of the most recent upload.
type Corpus struct {
	DocumentID string         `json:"document_id"`
	Chunks     []models.Chunk `json:"chunks"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// CorpusStore keeps a single corpus in a local file. Every Replace
// overwrites the previous corpus.
type CorpusStore struct {
	mu          sync.RWMutex
	path        string
	compression utils.CompressionAlgorithm
}

func NewCorpusStore(path string) *CorpusStore {
	return &CorpusStore{
		path:        path,
		compression: utils.AlgorithmForPath(path),
	}
}

// Replace writes the corpus through a temp file and renames it into place.
func (s *CorpusStore) Replace(documentID string, chunks []models.Chunk) error {
	data, err := json.Marshal(Corpus{
		DocumentID: documentID,
		Chunks:     chunks,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	data, err = utils.CompressData(data, s.compression)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".corpus-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move corpus into place: %w", err)
	}
	return nil
}

// Load returns the stored corpus. A missing file is an empty corpus.
func (s *CorpusStore) Load() (*Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Corpus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	raw, err = utils.DecompressData(raw, s.compression)
	if err != nil {
		return nil, err
	}

	var corpus Corpus
	if err := json.Unmarshal(raw, &corpus); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	return &corpus, nil
}
