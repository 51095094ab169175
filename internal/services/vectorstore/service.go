package vectorstore

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

// Service adapts a hosted-embedding vector provider into the store used by
// the query pipeline. Ingestion embeds and writes in strictly sequential
// batches with a shared rate limiter pacing every provider call.
type Service struct {
	provider        interfaces.VectorProvider
	limiter         *rate.Limiter
	embedBatchSize  int
	upsertBatchSize int
	logger          arbor.ILogger
}

// NewService creates a vector store over the given provider
func NewService(provider interfaces.VectorProvider, config *common.PineconeConfig, logger arbor.ILogger) (interfaces.VectorStore, error) {
	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Service{
		provider:        provider,
		limiter:         rate.NewLimiter(limit, 1),
		embedBatchSize:  config.EmbedBatchSize,
		upsertBatchSize: config.UpsertBatchSize,
		logger:          logger,
	}, nil
}

// Upsert embeds chunk texts in passage mode and writes the vectors to the
// index. Batches run sequentially; a failure stops the run and already
// written batches remain committed.
func (s *Service) Upsert(ctx context.Context, chunks []models.Chunk) (*models.UpsertResult, error) {
	start := time.Now()

	if len(chunks) == 0 {
		return &models.UpsertResult{
			UpsertedCount:  0,
			DurationMs:     time.Since(start).Milliseconds(),
			IndexName:      s.provider.IndexName(),
			EmbeddingModel: s.provider.EmbeddingModel(),
		}, nil
	}

	vectors := make([]interfaces.PassageVector, 0, len(chunks))
	for offset := 0; offset < len(chunks); offset += s.embedBatchSize {
		batch := chunks[offset:min(offset+s.embedBatchSize, len(chunks))]

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embeddings, err := s.provider.EmbedPassages(ctx, texts)
		if err != nil {
			return nil, err
		}

		for i, chunk := range batch {
			vectors = append(vectors, interfaces.PassageVector{
				ID:     chunk.ID,
				Values: embeddings[i],
				Chunk:  chunk,
			})
		}
	}

	upserted := 0
	for offset := 0; offset < len(vectors); offset += s.upsertBatchSize {
		batch := vectors[offset:min(offset+s.upsertBatchSize, len(vectors))]

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		if err := s.provider.Upsert(ctx, batch); err != nil {
			return nil, err
		}
		upserted += len(batch)
	}

	s.logger.Info().
		Int("chunks", len(chunks)).
		Int("upserted", upserted).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("Chunks indexed")

	return &models.UpsertResult{
		UpsertedCount:  upserted,
		DurationMs:     time.Since(start).Milliseconds(),
		IndexName:      s.provider.IndexName(),
		EmbeddingModel: s.provider.EmbeddingModel(),
	}, nil
}

// Query embeds the query text in query mode and retrieves the topK nearest
// matches. Each match is annotated with its retrieval ordinal so downstream
// stages can fall back to retrieval order.
func (s *Service) Query(ctx context.Context, queryText string, topK int) ([]models.RetrievedMatch, int64, error) {
	start := time.Now()

	vector, err := s.provider.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, time.Since(start).Milliseconds(), err
	}

	matches, err := s.provider.Query(ctx, vector, topK)
	if err != nil {
		return nil, time.Since(start).Milliseconds(), err
	}

	for i := range matches {
		matches[i].Index = i
	}

	s.logger.Debug().
		Int("top_k", topK).
		Int("matches", len(matches)).
		Msg("Vector query completed")

	return matches, time.Since(start).Milliseconds(), nil
}

// Stats returns index cardinality and dimension
func (s *Service) Stats(ctx context.Context) (*models.IndexStats, error) {
	return s.provider.Stats(ctx)
}

// Clear removes every vector from the index namespace
func (s *Service) Clear(ctx context.Context) error {
	return s.provider.DeleteAll(ctx)
}
