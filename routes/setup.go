package routes

import (
	"pdf-rag-service/internal/config"
	"pdf-rag-service/middleware"
	"pdf-rag-service/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// multipartOverhead leaves room for form boundaries around the file itself.
const multipartOverhead = 1 << 20

func SetupHealthRoutes(router *gin.Engine, docs *services.DocumentService) {
	router.GET("/", HandleRoot)
	router.GET("/health", HandleHealth(docs.Mode()))
}

// SetupDocumentRoutes registers the synchronous extract and ask endpoints.
func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, docs *services.DocumentService) {
	router.POST("/extract", middleware.RequestSizeLimit(cfg.MaxFileSize+multipartOverhead), HandleExtract(docs, cfg.MaxFileSize))
	router.POST("/ask", HandleAsk(docs))
	router.POST("/chat", HandleAsk(docs))
}

// SetupAsyncRoutes registers queued extraction; only used when Redis is
// configured.
func SetupAsyncRoutes(router *gin.Engine, cfg *config.Config, storage *services.FileStorageManager, client *asynq.Client, inspector *asynq.Inspector) {
	extract := router.Group("/extract")
	extract.POST("/async", middleware.RequestSizeLimit(cfg.MaxFileSize+multipartOverhead), HandleAsyncExtract(storage, client, cfg.MaxFileSize))
	extract.GET("/tasks/:id", HandleTaskStatus(inspector))
}
