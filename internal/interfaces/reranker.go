package interfaces

import (
	"context"

	"github.com/ternarybob/percontor/internal/models"
)

// Reranker reorders retrieval candidates with a cross-encoder. On any
// provider error it falls back to retrieval-score ordering and marks the
// outcome Fallback=true; it never returns an error to the caller.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []models.RetrievedMatch, topN int) *models.RerankOutcome
}

// RerankResult is one scored entry from the cross-encoder provider. Index
// refers to the position in the submitted candidate list so results can be
// spliced back onto the original candidates.
type RerankResult struct {
	Index          int
	RelevanceScore float64
}

// RerankProvider is the external cross-encoder service
type RerankProvider interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error)
}
