package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

type fakeStore struct {
	matches  []models.RetrievedMatch
	err      error
	lastTopK int
}

func (f *fakeStore) Upsert(_ context.Context, _ []models.Chunk) (*models.UpsertResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeStore) Query(_ context.Context, _ string, topK int) ([]models.RetrievedMatch, int64, error) {
	f.lastTopK = topK
	if f.err != nil {
		return nil, 7, f.err
	}
	return f.matches, 7, nil
}

func (f *fakeStore) Stats(_ context.Context) (*models.IndexStats, error) { return nil, nil }
func (f *fakeStore) Clear(_ context.Context) error                      { return nil }

type fakeReranker struct {
	fallback bool
	lastTopN int
	called   bool
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, candidates []models.RetrievedMatch, topN int) *models.RerankOutcome {
	f.called = true
	f.lastTopN = topN
	n := len(candidates)
	if n > topN {
		n = topN
	}
	matches := make([]models.RankedChunk, n)
	for i := 0; i < n; i++ {
		matches[i] = models.RankedChunk{
			RetrievedMatch: candidates[i],
			RankingScore:   candidates[i].Score,
			RerankIndex:    i,
		}
	}
	return &models.RerankOutcome{Matches: matches, Fallback: f.fallback, DurationMs: 3}
}

type fakeGenerator struct {
	answer *models.GeneratedAnswer
	called bool
	chunks []models.RankedChunk
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, chunks []models.RankedChunk) *models.GeneratedAnswer {
	f.called = true
	f.chunks = chunks
	if f.answer != nil {
		return f.answer
	}
	return &models.GeneratedAnswer{
		Answer:    "Generated answer [1].",
		Citations: []models.Citation{{Number: 1, Text: "preview"}},
		Tokens:    models.TokenUsage{InputTokens: 100, OutputTokens: 20},
		Cost:      models.CostEstimate{Currency: "USD"},
		Model:     "claude-haiku-3-5-20241022",
	}
}

func retrievalConfig() *common.RetrievalConfig {
	return &common.RetrievalConfig{TopK: 10, TopN: 5, MinQueryChars: 3, PreviewChars: 150}
}

func newTestPipeline(store *fakeStore, reranker *fakeReranker, generator *fakeGenerator) interfaces.QueryPipeline {
	return NewService(store, reranker, generator, retrievalConfig(), common.GetLogger())
}

func storedMatches() []models.RetrievedMatch {
	return []models.RetrievedMatch{
		{ID: "a", Score: 0.9, Text: "Passage one.", Index: 0, Metadata: models.ChunkMetadata{Title: "Doc", Section: "Intro"}},
		{ID: "b", Score: 0.8, Text: "Passage two.", Index: 1, Metadata: models.ChunkMetadata{Title: "Doc"}},
		{ID: "c", Score: 0.7, Text: "Passage three.", Index: 2},
	}
}

func TestQuery_FullPipeline(t *testing.T) {
	store := &fakeStore{matches: storedMatches()}
	reranker := &fakeReranker{}
	generator := &fakeGenerator{}
	service := newTestPipeline(store, reranker, generator)

	result, err := service.Query(context.Background(), &models.QueryRequest{Query: "how does it work"})
	require.NoError(t, err)

	assert.Equal(t, "Generated answer [1].", result.Answer)
	assert.Equal(t, 10, store.lastTopK)
	assert.Equal(t, 5, reranker.lastTopN)
	assert.Len(t, generator.chunks, 3)

	// Sources are numbered in final rank order, matching prompt indices
	require.Len(t, result.Sources, 3)
	assert.Equal(t, 1, result.Sources[0].Number)
	assert.Equal(t, 0.9, result.Sources[0].RankingScore)
	assert.Equal(t, "Doc", result.Sources[0].Title)
	assert.Equal(t, "Intro", result.Sources[0].Section)
	assert.Equal(t, "Passage one.", result.Sources[0].Preview)
	assert.Equal(t, 3, result.Sources[2].Number)

	assert.Equal(t, int64(7), result.Timing.RetrievalMs)
	assert.Equal(t, int64(3), result.Timing.RerankMs)
	assert.GreaterOrEqual(t, result.Timing.TotalMs, int64(0))
	assert.Equal(t, 10, result.Metadata.TopK)
	assert.Equal(t, 5, result.Metadata.TopN)
	assert.False(t, result.Metadata.NoDocuments)
}

func TestQuery_ShortQueryRejected(t *testing.T) {
	store := &fakeStore{}
	reranker := &fakeReranker{}
	generator := &fakeGenerator{}
	service := newTestPipeline(store, reranker, generator)

	tests := []struct {
		name  string
		query string
	}{
		{name: "Empty", query: ""},
		{name: "Whitespace only", query: "    "},
		{name: "Too short", query: "hi"},
		{name: "Short after trim", query: "  ab  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.Query(context.Background(), &models.QueryRequest{Query: tt.query})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, models.IsValidation(err))
			assert.False(t, reranker.called)
			assert.False(t, generator.called)
		})
	}
}

func TestQuery_RetrievalErrorPropagates(t *testing.T) {
	upstream := &models.ProviderError{Provider: "pinecone", StatusCode: 503, Err: errors.New("down")}
	store := &fakeStore{err: upstream}
	reranker := &fakeReranker{}
	generator := &fakeGenerator{}
	service := newTestPipeline(store, reranker, generator)

	result, err := service.Query(context.Background(), &models.QueryRequest{Query: "valid question"})
	require.Error(t, err)
	assert.Nil(t, result)

	var pe *models.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.False(t, reranker.called, "rerank must not run after retrieval failure")
	assert.False(t, generator.called, "generation must not run after retrieval failure")

	// The failure still carries the timing collected before the abort
	var re *models.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, int64(7), re.Timing.RetrievalMs)
	assert.GreaterOrEqual(t, re.Timing.TotalMs, int64(0))
}

func TestQuery_EmptyIndexShortCircuits(t *testing.T) {
	store := &fakeStore{matches: nil}
	reranker := &fakeReranker{}
	generator := &fakeGenerator{
		answer: &models.GeneratedAnswer{
			Answer:    "No relevant passages found.",
			Citations: []models.Citation{},
			Model:     "claude-haiku-3-5-20241022",
		},
	}
	service := newTestPipeline(store, reranker, generator)

	result, err := service.Query(context.Background(), &models.QueryRequest{Query: "anything at all"})
	require.NoError(t, err)

	assert.True(t, result.Metadata.NoDocuments)
	assert.Empty(t, result.Sources)
	assert.Empty(t, result.Citations)
	assert.False(t, reranker.called, "rerank must not run on an empty result set")
	assert.Nil(t, generator.chunks)
	assert.Equal(t, int64(7), result.Timing.RetrievalMs)
	assert.Equal(t, int64(0), result.Timing.RerankMs)
	assert.Equal(t, int64(0), result.Timing.GenerationMs)
}

func TestQuery_DegradationFlagsSurface(t *testing.T) {
	store := &fakeStore{matches: storedMatches()}
	reranker := &fakeReranker{fallback: true}
	generator := &fakeGenerator{
		answer: &models.GeneratedAnswer{
			Answer:    "The answer could not be generated.",
			Citations: []models.Citation{},
			Model:     "claude-haiku-3-5-20241022",
			ErrorTag:  models.GenerationErrorTimeout,
		},
	}
	service := newTestPipeline(store, reranker, generator)

	result, err := service.Query(context.Background(), &models.QueryRequest{Query: "slow question"})
	require.NoError(t, err, "a degraded generation is still a success payload")

	assert.True(t, result.Metadata.RerankFallback)
	assert.Equal(t, models.GenerationErrorTimeout, result.Metadata.GenerationError)
	assert.NotEmpty(t, result.Sources, "sources remain available on degraded answers")
}

func TestQuery_TopNClampedToTopK(t *testing.T) {
	store := &fakeStore{matches: storedMatches()}
	reranker := &fakeReranker{}
	generator := &fakeGenerator{}
	service := newTestPipeline(store, reranker, generator)

	_, err := service.Query(context.Background(), &models.QueryRequest{Query: "custom limits", TopK: 4, TopN: 9})
	require.NoError(t, err)

	assert.Equal(t, 4, store.lastTopK)
	assert.Equal(t, 4, reranker.lastTopN)
}
