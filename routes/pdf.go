package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/queue"
	"pdf-rag-service/models"
	"pdf-rag-service/services"
	"pdf-rag-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

const uploadField = "file"

// HandleExtract ingests an uploaded PDF and returns its chunks.
func HandleExtract(docs *services.DocumentService, maxFileSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile(uploadField)
		if err != nil {
			respondWithServiceError(c, uploadError(err))
			return
		}

		documentID := filepath.Base(fileHeader.Filename)
		if err := services.ValidateUpload(documentID, fileHeader.Size, maxFileSize); err != nil {
			respondWithServiceError(c, err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondWithServiceError(c, fmt.Errorf("failed to open upload: %w", err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondWithServiceError(c, fmt.Errorf("failed to read upload: %w", err))
			return
		}

		ctx, cancel := utils.WithIngestTimeout(c.Request.Context())
		defer cancel()

		chunks, err := docs.Ingest(ctx, models.Document{ID: documentID, Data: data})
		if err != nil {
			respondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ExtractResponse{
			Chunks:  models.ChunkTexts(chunks),
			Message: extractMessage(len(chunks), docs.Mode()),
		})
	}
}

func extractMessage(n int, mode string) string {
	if n == 0 {
		return "No text could be extracted from the PDF"
	}
	return fmt.Sprintf("Extracted %d chunks (%s retrieval)", n, mode)
}

// HandleAsyncExtract stores the upload and queues it for the worker.
func HandleAsyncExtract(storage *services.FileStorageManager, queueClient *asynq.Client, maxFileSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile(uploadField)
		if err != nil {
			respondWithServiceError(c, uploadError(err))
			return
		}

		documentID := filepath.Base(fileHeader.Filename)
		if err := services.ValidateUpload(documentID, fileHeader.Size, maxFileSize); err != nil {
			respondWithServiceError(c, err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondWithServiceError(c, fmt.Errorf("failed to open upload: %w", err))
			return
		}
		defer file.Close()

		stored, err := storage.Store(file, documentID)
		if err != nil {
			respondWithServiceError(c, err)
			return
		}

		task, err := queue.NewIngestTask(models.IngestTask{
			DocumentID: documentID,
			FilePath:   stored.Path,
			UploadedAt: time.Now().UTC(),
		})
		if err != nil {
			storage.Cleanup(stored.Path)
			respondWithServiceError(c, err)
			return
		}

		info, err := queueClient.EnqueueContext(c.Request.Context(), task)
		if err != nil {
			storage.Cleanup(stored.Path)
			respondWithServiceError(c, fmt.Errorf("failed to enqueue ingestion: %w", err))
			return
		}

		logger.Info("Ingestion queued", "task_id", info.ID, "document_id", documentID, "size", stored.Size)
		c.JSON(http.StatusAccepted, models.TaskResponse{
			TaskID:     info.ID,
			Status:     models.StatusQueued,
			DocumentID: documentID,
		})
	}
}

// HandleTaskStatus reports the state of a queued ingestion.
func HandleTaskStatus(inspector *asynq.Inspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := inspector.GetTaskInfo(queue.QueueIngest, c.Param("id"))
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			utils.RespondWithNotFound(c, "Task not found")
			return
		}
		if err != nil {
			respondWithServiceError(c, fmt.Errorf("failed to read task: %w", err))
			return
		}

		c.JSON(http.StatusOK, queue.TaskStatus(info))
	}
}

func uploadError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return fmt.Errorf("%w: multipart field %q with a PDF file is required", services.ErrValidation, uploadField)
}
