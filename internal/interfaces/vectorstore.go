package interfaces

import (
	"context"

	"github.com/ternarybob/percontor/internal/models"
)

// VectorStore wraps the hosted vector index: batched upserts, nearest
// neighbor queries, stats, and full reset. Embedding computation is
// delegated to the provider; implementations never compute vectors locally.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []models.Chunk) (*models.UpsertResult, error)
	Query(ctx context.Context, queryText string, topK int) ([]models.RetrievedMatch, int64, error)
	Stats(ctx context.Context) (*models.IndexStats, error)
	Clear(ctx context.Context) error
}

// PassageVector pairs a chunk with its provider-computed embedding for the
// write path between the embed and upsert calls.
type PassageVector struct {
	ID     string
	Values []float32
	Chunk  models.Chunk
}

// VectorProvider is the external hosted-embedding vector service.
// EmbedPassages and EmbedQuery use the provider's passage and query
// embedding modes respectively.
type VectorProvider interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Upsert(ctx context.Context, vectors []PassageVector) error
	Query(ctx context.Context, vector []float32, topK int) ([]models.RetrievedMatch, error)
	Stats(ctx context.Context) (*models.IndexStats, error)
	DeleteAll(ctx context.Context) error
	EmbeddingModel() string
	IndexName() string
}
