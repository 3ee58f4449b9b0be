package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pdf-rag-service/internal/ai"
)

// NoContentAnswer is returned without calling the model when retrieval finds
// nothing to answer from.
const NoContentAnswer = "No relevant content found in PDF."

const answerSystemPrompt = "You answer questions about an uploaded PDF document. " +
	"Use only the information in the provided context. " +
	"If the context does not contain the answer, say that the document does not cover it."

// AnswerGenerator turns retrieved context and a question into a model answer.
type AnswerGenerator struct {
	completer ai.Completer
}

func NewAnswerGenerator(completer ai.Completer) *AnswerGenerator {
	return &AnswerGenerator{completer: completer}
}

// BuildContext joins retrieved texts in retrieval order with blank lines.
func BuildContext(texts []string) string {
	return strings.Join(texts, "\n\n")
}

// BuildUserPrompt renders the user turn sent to the model.
func BuildUserPrompt(contextText, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)
}

// Answer returns the model's text verbatim, or NoContentAnswer when texts is
// empty.
func (g *AnswerGenerator) Answer(ctx context.Context, question string, texts []string) (string, error) {
	contextText := BuildContext(texts)
	if strings.TrimSpace(contextText) == "" {
		return NoContentAnswer, nil
	}

	answer, err := g.completer.Complete(ctx, answerSystemPrompt, BuildUserPrompt(contextText, question))
	if err != nil {
		if errors.Is(err, ErrProvider) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}
	return answer, nil
}
