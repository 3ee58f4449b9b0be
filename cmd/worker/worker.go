package main

import (
	"context"
	"log"

	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/queue"
	"pdf-rag-service/internal/telemetry"
	"pdf-rag-service/services"

	"github.com/hibiken/asynq"
)

// The worker ingests uploads queued by POST /extract/async. It builds the
// same pipeline as the API so both processes index into the same store.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.ValidateIngest(); err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	if !cfg.RedisEnabled() {
		log.Fatal("REDIS_URL is required for the ingest worker")
	}
	if !cfg.AsyncIngestSupported() {
		log.Fatal("VECTOR_STORE=memory cannot be shared with the API process; use a persistent store or none")
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

	retriever := services.NewRetriever(ctx, cfg)
	defer retriever.Close()

	docs := services.NewDocumentService(
		services.NewPDFExtractor(),
		services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		retriever,
		nil, // the worker never answers questions
		metrics,
	)

	storage, err := services.NewFileStorageManager(cfg.FileStorageDir)
	if err != nil {
		log.Fatal("Failed to initialize file storage:", err)
	}

	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		log.Fatal("Invalid Redis configuration:", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				queue.QueueIngest: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(docs, storage)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestPDF, processor.ProcessIngest)

	logger.Info("Starting ingest worker", "queue", queue.QueueIngest, "retrieval_mode", docs.Mode())
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
