package interfaces

import (
	"context"

	"github.com/ternarybob/percontor/internal/models"
)

// QueryPipeline sequences retrieval, reranking, and grounded generation for
// a single question. Retrieval failures propagate; rerank and generation
// failures degrade into flags on the result.
type QueryPipeline interface {
	Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error)
}
