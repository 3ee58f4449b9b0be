package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"pdf-rag-service/models"
	"pdf-rag-service/services"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngester struct {
	got models.Document
	err error
}

func (f *fakeIngester) Ingest(ctx context.Context, doc models.Document) ([]models.Chunk, error) {
	f.got = doc
	if f.err != nil {
		return nil, f.err
	}
	return []models.Chunk{{Index: 0, Text: "x"}}, nil
}

type fakeFiles struct {
	data    map[string][]byte
	cleaned []string
}

func (f *fakeFiles) Read(path string) ([]byte, error) {
	d, ok := f.data[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return d, nil
}

func (f *fakeFiles) Cleanup(path string) { f.cleaned = append(f.cleaned, path) }

func ingestTask(t *testing.T, path string) *asynq.Task {
	task, err := NewIngestTask(models.IngestTask{DocumentID: "report.pdf", FilePath: path, UploadedAt: time.Now()})
	require.NoError(t, err)
	return task
}

func TestProcessIngestRunsPipelineAndCleansUp(t *testing.T) {
	files := &fakeFiles{data: map[string][]byte{"/tmp/a.pdf": []byte("%PDF-bytes")}}
	docs := &fakeIngester{}
	p := NewTaskProcessor(docs, files)

	require.NoError(t, p.ProcessIngest(context.Background(), ingestTask(t, "/tmp/a.pdf")))
	assert.Equal(t, "report.pdf", docs.got.ID)
	assert.Equal(t, []byte("%PDF-bytes"), docs.got.Data)
	assert.Equal(t, []string{"/tmp/a.pdf"}, files.cleaned)
}

func TestProcessIngestSkipsRetryOnBadDocument(t *testing.T) {
	files := &fakeFiles{data: map[string][]byte{"/tmp/a.pdf": []byte("junk")}}
	p := NewTaskProcessor(&fakeIngester{err: fmt.Errorf("%w: bad xref", services.ErrExtraction)}, files)

	err := p.ProcessIngest(context.Background(), ingestTask(t, "/tmp/a.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, []string{"/tmp/a.pdf"}, files.cleaned)
}

func TestProcessIngestRejectsBadPayload(t *testing.T) {
	p := NewTaskProcessor(&fakeIngester{}, &fakeFiles{})
	err := p.ProcessIngest(context.Background(), asynq.NewTask(TaskIngestPDF, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestTaskStatus(t *testing.T) {
	payload, _ := json.Marshal(models.IngestTask{DocumentID: "report.pdf"})

	resp := TaskStatus(&asynq.TaskInfo{ID: "t1", State: asynq.TaskStatePending, Payload: payload})
	assert.Equal(t, models.StatusQueued, resp.Status)
	assert.Equal(t, "report.pdf", resp.DocumentID)

	resp = TaskStatus(&asynq.TaskInfo{ID: "t1", State: asynq.TaskStateArchived, LastErr: "extraction error"})
	assert.Equal(t, models.StatusFailed, resp.Status)
	assert.Equal(t, "extraction error", resp.Error)

	resp = TaskStatus(&asynq.TaskInfo{ID: "t1", State: asynq.TaskStateCompleted})
	assert.Equal(t, models.StatusCompleted, resp.Status)
}
