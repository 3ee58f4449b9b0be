package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/telemetry"
	"pdf-rag-service/models"
)

// DocumentService runs ingestion (extract, chunk, index) and question
// answering (retrieve, generate).
type DocumentService struct {
	extractor *PDFExtractor
	chunker   *Chunker
	retriever Retriever
	answers   *AnswerGenerator
	metrics   *telemetry.Metrics
}

func NewDocumentService(extractor *PDFExtractor, chunker *Chunker, retriever Retriever, answers *AnswerGenerator, metrics *telemetry.Metrics) *DocumentService {
	return &DocumentService{
		extractor: extractor,
		chunker:   chunker,
		retriever: retriever,
		answers:   answers,
		metrics:   metrics,
	}
}

// Mode reports the retrieval strategy in use.
func (s *DocumentService) Mode() string {
	return s.retriever.Mode()
}

// Ingest extracts and chunks doc, then indexes the chunks. Either every chunk
// is indexed or the call fails.
func (s *DocumentService) Ingest(ctx context.Context, doc models.Document) ([]models.Chunk, error) {
	start := time.Now()

	chunks, err := s.ingest(ctx, doc)
	status := "success"
	if err != nil {
		status = "failed"
	}
	s.metrics.RecordPDFProcessing(time.Since(start).Seconds(), status, len(chunks))

	if err != nil {
		logger.Error("Ingestion failed", "document_id", doc.ID, "mode", s.retriever.Mode(), "error", err)
		return nil, err
	}

	logger.Info("Document ingested",
		"document_id", doc.ID,
		"chunks", len(chunks),
		"mode", s.retriever.Mode(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return chunks, nil
}

func (s *DocumentService) ingest(ctx context.Context, doc models.Document) ([]models.Chunk, error) {
	if strings.TrimSpace(doc.ID) == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrValidation)
	}

	text, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	chunks := s.chunker.Split(text)
	if err := s.retriever.Index(ctx, doc.ID, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Ask answers question from the indexed content.
func (s *DocumentService) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: query is required", ErrValidation)
	}

	texts, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	s.metrics.RecordRetrieval(s.retriever.Mode(), len(texts))

	if len(texts) == 0 {
		logger.Debug("No context retrieved", "mode", s.retriever.Mode())
	}
	return s.answers.Answer(ctx, question, texts)
}
