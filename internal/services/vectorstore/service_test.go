package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

type fakeProvider struct {
	embedBatches  [][]string
	upsertBatches [][]interfaces.PassageVector
	queryCalls    int

	embedErr  error
	upsertErr error
	queryErr  error

	queryMatches []models.RetrievedMatch
}

func (f *fakeProvider) EmbedPassages(_ context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.embedBatches = append(f.embedBatches, texts)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

func (f *fakeProvider) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.5}, nil
}

func (f *fakeProvider) Upsert(_ context.Context, vectors []interfaces.PassageVector) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertBatches = append(f.upsertBatches, vectors)
	return nil
}

func (f *fakeProvider) Query(_ context.Context, _ []float32, _ int) ([]models.RetrievedMatch, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryMatches, nil
}

func (f *fakeProvider) Stats(_ context.Context) (*models.IndexStats, error) {
	return &models.IndexStats{VectorCount: 42, Dimension: 1024}, nil
}

func (f *fakeProvider) DeleteAll(_ context.Context) error {
	return nil
}

func (f *fakeProvider) EmbeddingModel() string { return "test-embed-model" }
func (f *fakeProvider) IndexName() string      { return "test-index" }

func newTestService(t *testing.T, provider interfaces.VectorProvider) interfaces.VectorStore {
	t.Helper()
	config := &common.PineconeConfig{
		EmbedBatchSize:  10,
		UpsertBatchSize: 100,
		RateLimit:       "0s",
	}
	service, err := NewService(provider, config, common.GetLogger())
	require.NoError(t, err)
	return service
}

func makeChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			ID:   fmt.Sprintf("chunk_%03d", i),
			Text: fmt.Sprintf("chunk text %d", i),
			Metadata: models.ChunkMetadata{
				Position: i,
			},
		}
	}
	return chunks
}

func TestUpsert_BatchesSequentially(t *testing.T) {
	provider := &fakeProvider{}
	service := newTestService(t, provider)

	result, err := service.Upsert(context.Background(), makeChunks(25))
	require.NoError(t, err)

	assert.Equal(t, 25, result.UpsertedCount)
	assert.Equal(t, "test-index", result.IndexName)
	assert.Equal(t, "test-embed-model", result.EmbeddingModel)

	// Embedding runs in batches of 10; writes fit a single batch of 100
	require.Len(t, provider.embedBatches, 3)
	assert.Len(t, provider.embedBatches[0], 10)
	assert.Len(t, provider.embedBatches[1], 10)
	assert.Len(t, provider.embedBatches[2], 5)
	require.Len(t, provider.upsertBatches, 1)
	assert.Len(t, provider.upsertBatches[0], 25)
}

func TestUpsert_EmptyInput(t *testing.T) {
	provider := &fakeProvider{}
	service := newTestService(t, provider)

	result, err := service.Upsert(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.UpsertedCount)
	assert.Empty(t, provider.embedBatches)
	assert.Empty(t, provider.upsertBatches)
}

func TestUpsert_EmbedErrorPropagates(t *testing.T) {
	rateLimited := &models.RateLimitError{Provider: "pinecone", Err: errors.New("429")}
	provider := &fakeProvider{embedErr: rateLimited}
	service := newTestService(t, provider)

	result, err := service.Upsert(context.Background(), makeChunks(5))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, models.IsRateLimit(err))
	assert.Empty(t, provider.upsertBatches)
}

func TestUpsert_WriteErrorPropagates(t *testing.T) {
	upstream := &models.ProviderError{Provider: "pinecone", StatusCode: 500, Err: errors.New("boom")}
	provider := &fakeProvider{upsertErr: upstream}
	service := newTestService(t, provider)

	result, err := service.Upsert(context.Background(), makeChunks(5))
	require.Error(t, err)
	assert.Nil(t, result)

	var providerErr *models.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, 500, providerErr.StatusCode)
}

func TestQuery_AnnotatesRetrievalOrdinals(t *testing.T) {
	provider := &fakeProvider{
		queryMatches: []models.RetrievedMatch{
			{ID: "a", Score: 0.9},
			{ID: "b", Score: 0.7},
			{ID: "c", Score: 0.5},
		},
	}
	service := newTestService(t, provider)

	matches, durationMs, err := service.Query(context.Background(), "what is chunking", 10)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, durationMs, int64(0))
	require.Len(t, matches, 3)
	for i, m := range matches {
		assert.Equal(t, i, m.Index)
	}
	assert.Equal(t, 1, provider.queryCalls)
}

func TestQuery_ErrorIncludesElapsedTime(t *testing.T) {
	provider := &fakeProvider{queryErr: errors.New("index unavailable")}
	service := newTestService(t, provider)

	matches, durationMs, err := service.Query(context.Background(), "anything", 10)
	require.Error(t, err)
	assert.Nil(t, matches)
	assert.GreaterOrEqual(t, durationMs, int64(0))
}
