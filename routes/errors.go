package routes

import (
	"errors"
	"net/http"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/middleware"
	"pdf-rag-service/services"
	"pdf-rag-service/utils"

	"github.com/gin-gonic/gin"
)

// respondWithServiceError maps pipeline errors onto HTTP statuses.
func respondWithServiceError(c *gin.Context, err error) {
	status, code := classify(err)

	var details gin.H
	var chunkErr *services.ChunkEmbedError
	if errors.As(err, &chunkErr) {
		details = gin.H{"chunk_index": chunkErr.Index}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "error_code", code, "error", err, "request_id", middleware.GetRequestID(c))
	} else {
		logger.Warn("Request rejected", "path", c.FullPath(), "error_code", code, "error", err, "request_id", middleware.GetRequestID(c))
	}

	_ = c.Error(err)
	switch status {
	case http.StatusBadRequest:
		utils.RespondWithBadRequest(c, err.Error(), details)
	case http.StatusInternalServerError:
		utils.RespondWithInternalError(c, err.Error(), details)
	default:
		utils.RespondWithError(c, status, code, err.Error(), details)
	}
}

func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "request_too_large"
	case errors.Is(err, services.ErrExtraction):
		return http.StatusUnprocessableEntity, "extraction_error"
	case errors.Is(err, services.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, services.ErrProvider), errors.Is(err, ai.ErrCircuitOpen):
		return http.StatusBadGateway, "provider_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
