package reranker

import (
	"context"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

// Service reorders retrieval candidates with a cross-encoder provider. The
// reranking stage is best-effort: on any provider failure it falls back to
// retrieval-score ordering and marks the outcome, so a degraded reranker
// never fails a query.
type Service struct {
	provider interfaces.RerankProvider
	logger   arbor.ILogger
}

// NewService creates a reranker over the given provider
func NewService(provider interfaces.RerankProvider, logger arbor.ILogger) interfaces.Reranker {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// Rerank scores candidates against the query and returns the top n in
// descending relevance order. Empty candidate lists short-circuit without a
// provider call.
func (s *Service) Rerank(ctx context.Context, query string, candidates []models.RetrievedMatch, topN int) *models.RerankOutcome {
	if len(candidates) == 0 {
		return &models.RerankOutcome{Matches: []models.RankedChunk{}}
	}

	start := time.Now()

	documents := make([]string, len(candidates))
	for i, c := range candidates {
		documents[i] = c.Text
	}

	// Never request more results than documents sent.
	requested := topN
	if len(documents) < requested {
		requested = len(documents)
	}

	results, err := s.provider.Rerank(ctx, query, documents, requested)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("candidates", len(candidates)).
			Msg("Rerank provider failed, falling back to retrieval order")
		return fallbackOutcome(candidates, topN, time.Since(start).Milliseconds())
	}

	matches := make([]models.RankedChunk, 0, len(results))
	for rank, r := range results {
		if r.Index < 0 || r.Index >= len(candidates) {
			s.logger.Warn().
				Int("index", r.Index).
				Int("candidates", len(candidates)).
				Msg("Rerank result index out of range, falling back to retrieval order")
			return fallbackOutcome(candidates, topN, time.Since(start).Milliseconds())
		}
		matches = append(matches, models.RankedChunk{
			RetrievedMatch: candidates[r.Index],
			RankingScore:   r.RelevanceScore,
			RerankIndex:    rank,
		})
	}
	if len(matches) > topN {
		matches = matches[:topN]
	}

	return &models.RerankOutcome{
		Matches:    matches,
		Fallback:   false,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// fallbackOutcome orders candidates by retrieval score, descending, breaking
// ties by retrieval ordinal so the ordering is deterministic.
func fallbackOutcome(candidates []models.RetrievedMatch, topN int, durationMs int64) *models.RerankOutcome {
	ordered := make([]models.RetrievedMatch, len(candidates))
	copy(ordered, candidates)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].Index < ordered[j].Index
	})

	if len(ordered) > topN {
		ordered = ordered[:topN]
	}

	matches := make([]models.RankedChunk, len(ordered))
	for rank, c := range ordered {
		matches[rank] = models.RankedChunk{
			RetrievedMatch: c,
			RankingScore:   c.Score,
			RerankIndex:    rank,
		}
	}

	return &models.RerankOutcome{
		Matches:    matches,
		Fallback:   true,
		DurationMs: durationMs,
	}
}
