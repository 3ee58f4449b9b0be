package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/telemetry"
	"pdf-rag-service/middleware"
	"pdf-rag-service/routes"
	"pdf-rag-service/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer(cfg)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	ctx := context.Background()

	completer, err := ai.NewCompleter(ctx, cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize language model:", err)
	}
	defer completer.Close()

	retriever := services.NewRetriever(ctx, cfg)
	defer retriever.Close()

	docs := services.NewDocumentService(
		services.NewPDFExtractor(),
		services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		retriever,
		services.NewAnswerGenerator(completer),
		metrics,
	)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	if cfg.OTelEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))

	if cfg.RedisEnabled() {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, rate limiting and async extraction disabled", "error", err)
		} else {
			defer rdb.Close()
			router.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitReqs, cfg.RateLimitWindow))

			if !cfg.AsyncIngestSupported() {
				logger.Warn("Async extraction disabled, the memory vector store is not shared with the worker", "vector_store", cfg.VectorStore)
			} else if err := setupAsync(router, cfg); err != nil {
				logger.Warn("Async extraction disabled", "error", err)
			}
		}
	}

	routes.SetupHealthRoutes(router, docs)
	routes.SetupDocumentRoutes(router, cfg, docs)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "retrieval_mode", docs.Mode(), "llm_provider", cfg.LLMProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

// setupAsync registers the queued extraction endpoints. The asynq client and
// inspector live for the whole process.
func setupAsync(router *gin.Engine, cfg *config.Config) error {
	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		return err
	}

	storage, err := services.NewFileStorageManager(cfg.FileStorageDir)
	if err != nil {
		return err
	}

	routes.SetupAsyncRoutes(router, cfg, storage, asynq.NewClient(redisOpt), asynq.NewInspector(redisOpt))
	return nil
}
