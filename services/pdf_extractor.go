package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"pdf-rag-service/internal/logger"
	"pdf-rag-service/models"

	"github.com/ledongthuc/pdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// PDFExtractor pulls plain text out of PDF bytes, page by page.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns the text of every readable page joined with newlines.
// Pages that are empty or fail to decode are skipped; bytes that cannot be
// opened as a PDF at all fail with ErrExtraction.
func (e *PDFExtractor) Extract(ctx context.Context, doc models.Document) (text string, err error) {
	_, span := otel.Tracer("services").Start(ctx, "pdf.extract")
	defer span.End()
	span.SetAttributes(
		attribute.String("pdf.document_id", doc.ID),
		attribute.Int("pdf.size", len(doc.Data)),
	)

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %s: %v", ErrExtraction, doc.ID, r)
		}
	}()

	if len(doc.Data) == 0 {
		return "", fmt.Errorf("%w: %s: empty document", ErrExtraction, doc.ID)
	}

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, doc.ID, err)
	}

	pages := reader.NumPage()
	texts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("Skipping unreadable page", "document_id", doc.ID, "page", i, "error", err)
			continue
		}

		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		texts = append(texts, pageText)
	}

	span.SetAttributes(
		attribute.Int("pdf.pages", pages),
		attribute.Int("pdf.pages_with_text", len(texts)),
	)
	return strings.Join(texts, "\n"), nil
}
