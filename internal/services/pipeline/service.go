package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

// Service runs the query pipeline: validate, retrieve, rerank, generate,
// assemble. Stages run strictly in sequence; retrieval failures fail the
// query, rerank and generation failures degrade it.
type Service struct {
	store     interfaces.VectorStore
	reranker  interfaces.Reranker
	generator interfaces.AnswerGenerator
	config    *common.RetrievalConfig
	logger    arbor.ILogger
}

// NewService creates the query pipeline
func NewService(
	store interfaces.VectorStore,
	reranker interfaces.Reranker,
	generator interfaces.AnswerGenerator,
	config *common.RetrievalConfig,
	logger arbor.ILogger,
) interfaces.QueryPipeline {
	return &Service{
		store:     store,
		reranker:  reranker,
		generator: generator,
		config:    config,
		logger:    logger,
	}
}

// Query answers a question against the indexed corpus. A retrieval failure
// is the only error path; every other outcome, including an empty index and
// a failed generation, returns a displayable result.
func (s *Service) Query(ctx context.Context, request *models.QueryRequest) (*models.QueryResult, error) {
	start := time.Now()

	query := strings.TrimSpace(request.Query)
	if len(query) < s.config.MinQueryChars {
		return nil, models.NewValidationError("query",
			fmt.Sprintf("query must be at least %d characters", s.config.MinQueryChars))
	}

	topK := request.TopK
	if topK <= 0 {
		topK = s.config.TopK
	}
	topN := request.TopN
	if topN <= 0 {
		topN = s.config.TopN
	}
	if topN > topK {
		topN = topK
	}

	matches, retrievalMs, err := s.store.Query(ctx, query, topK)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("retrieval_ms", retrievalMs).
			Msg("Retrieval failed")
		return nil, &models.RetrievalError{
			Timing: models.PipelineTiming{
				RetrievalMs: retrievalMs,
				TotalMs:     time.Since(start).Milliseconds(),
			},
			Err: err,
		}
	}

	timing := models.PipelineTiming{RetrievalMs: retrievalMs}

	if len(matches) == 0 {
		answer := s.generator.Generate(ctx, query, nil)
		timing.TotalMs = time.Since(start).Milliseconds()

		s.logger.Info().
			Str("query", common.Preview(query, 80)).
			Msg("Query matched no documents")

		return &models.QueryResult{
			Answer:    answer.Answer,
			Citations: []models.Citation{},
			Sources:   []models.Source{},
			Timing:    timing,
			Tokens:    answer.Tokens,
			Cost:      answer.Cost,
			Metadata: models.QueryMetadata{
				TopK:        topK,
				TopN:        topN,
				NoDocuments: true,
				Model:       answer.Model,
			},
		}, nil
	}

	outcome := s.reranker.Rerank(ctx, query, matches, topN)
	timing.RerankMs = outcome.DurationMs

	generationStart := time.Now()
	answer := s.generator.Generate(ctx, query, outcome.Matches)
	timing.GenerationMs = time.Since(generationStart).Milliseconds()
	timing.TotalMs = time.Since(start).Milliseconds()

	s.logger.Info().
		Str("query", common.Preview(query, 80)).
		Int("candidates", len(matches)).
		Int("ranked", len(outcome.Matches)).
		Bool("rerank_fallback", outcome.Fallback).
		Str("generation_error", answer.ErrorTag).
		Int64("total_ms", timing.TotalMs).
		Msg("Query completed")

	return &models.QueryResult{
		Answer:    answer.Answer,
		Citations: answer.Citations,
		Sources:   s.buildSources(outcome.Matches),
		Timing:    timing,
		Tokens:    answer.Tokens,
		Cost:      answer.Cost,
		Metadata: models.QueryMetadata{
			TopK:            topK,
			TopN:            topN,
			RerankFallback:  outcome.Fallback,
			GenerationError: answer.ErrorTag,
			Model:           answer.Model,
		},
	}, nil
}

// buildSources numbers the ranked chunks 1-based in final rank order so
// source numbers line up with the bracket indices in the prompt and answer
func (s *Service) buildSources(chunks []models.RankedChunk) []models.Source {
	sources := make([]models.Source, len(chunks))
	for i, chunk := range chunks {
		sources[i] = models.Source{
			Number:       i + 1,
			Title:        chunk.Metadata.Title,
			Source:       chunk.Metadata.Source,
			Section:      chunk.Metadata.Section,
			RankingScore: chunk.RankingScore,
			Preview:      common.Preview(chunk.Text, s.config.PreviewChars),
		}
	}
	return sources
}
