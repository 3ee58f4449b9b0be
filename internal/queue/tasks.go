package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pdf-rag-service/internal/logger"
	"pdf-rag-service/models"
	"pdf-rag-service/services"

	"github.com/hibiken/asynq"
)

const (
	TaskIngestPDF = "pdf:ingest"
	QueueIngest   = "ingest"
)

// IngestResult is written as the task result on success.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// NewIngestTask builds a one-shot task. Failed ingestions are never retried;
// the client uploads again.
func NewIngestTask(payload models.IngestTask) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestPDF,
		data,
		asynq.MaxRetry(0),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Queue(QueueIngest),
	), nil
}

// Ingester is the part of the document pipeline the worker needs.
type Ingester interface {
	Ingest(ctx context.Context, doc models.Document) ([]models.Chunk, error)
}

// FileSource reads and removes stored uploads.
type FileSource interface {
	Read(path string) ([]byte, error)
	Cleanup(path string)
}

type TaskProcessor struct {
	docs  Ingester
	files FileSource
}

func NewTaskProcessor(docs Ingester, files FileSource) *TaskProcessor {
	return &TaskProcessor{docs: docs, files: files}
}

// ProcessIngest runs the full ingestion for a stored upload and deletes the
// upload afterwards, whatever the outcome.
func (p *TaskProcessor) ProcessIngest(ctx context.Context, t *asynq.Task) error {
	var payload models.IngestTask
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}
	defer p.files.Cleanup(payload.FilePath)

	logger.Info("Processing queued ingestion", "document_id", payload.DocumentID, "queued_for", time.Since(payload.UploadedAt).String())

	data, err := p.files.Read(payload.FilePath)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	chunks, err := p.docs.Ingest(ctx, models.Document{ID: payload.DocumentID, Data: data})
	if err != nil {
		if errors.Is(err, services.ErrExtraction) || errors.Is(err, services.ErrValidation) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if w := t.ResultWriter(); w != nil {
		result, _ := json.Marshal(IngestResult{DocumentID: payload.DocumentID, Chunks: len(chunks)})
		if _, err := w.Write(result); err != nil {
			logger.Warn("Failed to write task result", "task_id", w.TaskID(), "error", err)
		}
	}
	return nil
}

// TaskStatus maps an asynq task state onto the statuses the API reports.
func TaskStatus(info *asynq.TaskInfo) models.TaskResponse {
	resp := models.TaskResponse{TaskID: info.ID}

	var payload models.IngestTask
	if err := json.Unmarshal(info.Payload, &payload); err == nil {
		resp.DocumentID = payload.DocumentID
	}

	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled, asynq.TaskStateAggregating:
		resp.Status = models.StatusQueued
	case asynq.TaskStateActive, asynq.TaskStateRetry:
		resp.Status = models.StatusProcessing
	case asynq.TaskStateCompleted:
		resp.Status = models.StatusCompleted
	case asynq.TaskStateArchived:
		resp.Status = models.StatusFailed
		resp.Error = info.LastErr
	default:
		resp.Status = info.State.String()
	}
	return resp
}
