package interfaces

import (
	"context"

	"github.com/ternarybob/percontor/internal/models"
)

// AnswerGenerator produces a grounded answer from reranked context. It never
// returns an error: provider failures degrade into a fixed answer carrying
// an error tag, so callers always receive a displayable payload.
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, chunks []models.RankedChunk) *models.GeneratedAnswer
}

// ContentRequest is a provider-agnostic generation request
type ContentRequest struct {
	Prompt            string
	SystemInstruction string
	Model             string
	Temperature       float32
	MaxTokens         int
}

// ContentResponse is a provider-agnostic generation response
type ContentResponse struct {
	Text     string
	Provider string
	Model    string
}

// ContentGenerator is the external answer-generation provider surface.
// Implementations select the concrete backend from the model name.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	DefaultModel() string
	Close() error
}
