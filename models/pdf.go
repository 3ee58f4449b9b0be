package models

import "time"

// Document is an uploaded PDF. ID is the source identifier (the upload
// filename) and prefixes every vector record id derived from it.
type Document struct {
	ID   string
	Data []byte
}

// Chunk is a bounded slice of extracted text with its position in the
// document.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ExtractResponse is returned by POST /extract.
type ExtractResponse struct {
	Chunks  []string `json:"chunks"`
	Message string   `json:"message"`
}

// IngestTask is the payload of a queued extraction.
type IngestTask struct {
	DocumentID string    `json:"document_id"`
	FilePath   string    `json:"file_path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TaskResponse is returned when an extraction is queued or polled.
type TaskResponse struct {
	TaskID     string `json:"task_id"`
	Status     string `json:"status"`
	DocumentID string `json:"document_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Task status values reported by GET /extract/tasks/:id
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ChunkTexts returns the chunk texts in index order.
func ChunkTexts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
