package generator

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

// Fixed user-facing answers for degraded generations. The pipeline still
// returns sources alongside these, so the caller keeps something useful.
const (
	noContextAnswer = "I could not find any relevant passages for this question. Try rephrasing it or ingesting more documents."
	timeoutAnswer   = "The answer could not be generated in time. The retrieved sources below may still be useful."
	rateLimitAnswer = "The answer service is currently rate limited. Please retry shortly; the retrieved sources below may still be useful."
	upstreamAnswer  = "The answer could not be generated due to an upstream provider error. The retrieved sources below may still be useful."
	genericAnswer   = "The answer could not be generated. The retrieved sources below may still be useful."
)

// Service produces grounded answers from reranked context. Generation is
// best-effort: any provider failure degrades into a fixed answer carrying an
// error tag, never an error return.
type Service struct {
	generator    interfaces.ContentGenerator
	llmConfig    *common.LLMConfig
	timeout      time.Duration
	temperature  float32
	maxTokens    int
	previewChars int
	logger       arbor.ILogger
}

// NewService creates an answer generator. The generation timeout and
// sampling settings follow the configured default provider.
func NewService(contentGen interfaces.ContentGenerator, config *common.Config, logger arbor.ILogger) (interfaces.AnswerGenerator, error) {
	timeoutStr := config.Claude.Timeout
	temperature := config.Claude.Temperature
	maxTokens := config.Claude.MaxTokens
	if config.LLM.DefaultProvider == "gemini" {
		timeoutStr = config.Gemini.Timeout
		temperature = config.Gemini.Temperature
		maxTokens = 0
	}

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, err
	}

	return &Service{
		generator:    contentGen,
		llmConfig:    &config.LLM,
		timeout:      timeout,
		temperature:  temperature,
		maxTokens:    maxTokens,
		previewChars: config.Retrieval.PreviewChars,
		logger:       logger,
	}, nil
}

// Generate builds a grounded prompt from the ranked chunks, calls the
// content provider, and extracts inline citations from the answer
func (s *Service) Generate(ctx context.Context, query string, chunks []models.RankedChunk) *models.GeneratedAnswer {
	model := s.generator.DefaultModel()

	if len(chunks) == 0 {
		return &models.GeneratedAnswer{
			Answer:    noContextAnswer,
			Citations: []models.Citation{},
			Cost:      s.costEstimate(0, 0),
			Model:     model,
		}
	}

	prompt := BuildPrompt(query, ContextBlocks(chunks))
	inputTokens := common.EstimateTokens(prompt) + common.EstimateTokens(systemInstruction)

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.generator.GenerateContent(timeoutCtx, &interfaces.ContentRequest{
		Prompt:            prompt,
		SystemInstruction: systemInstruction,
		Temperature:       s.temperature,
		MaxTokens:         s.maxTokens,
	})
	if err != nil {
		tag, answer := classifyDegradation(err)
		s.logger.Warn().
			Err(err).
			Str("error_tag", tag).
			Str("model", model).
			Msg("Answer generation degraded")

		return &models.GeneratedAnswer{
			Answer:    answer,
			Citations: []models.Citation{},
			Tokens:    models.TokenUsage{InputTokens: inputTokens},
			Cost:      s.costEstimate(inputTokens, 0),
			Model:     model,
			ErrorTag:  tag,
		}
	}

	outputTokens := common.EstimateTokens(resp.Text)

	s.logger.Debug().
		Str("model", resp.Model).
		Int("input_tokens", inputTokens).
		Int("output_tokens", outputTokens).
		Msg("Answer generated")

	return &models.GeneratedAnswer{
		Answer:    resp.Text,
		Citations: ExtractCitations(resp.Text, chunks, s.previewChars),
		Tokens:    models.TokenUsage{InputTokens: inputTokens, OutputTokens: outputTokens},
		Cost:      s.costEstimate(inputTokens, outputTokens),
		Model:     resp.Model,
	}
}

// costEstimate derives a cost from configured pricing. All-zero output is a
// legitimate value when pricing is unset (free-tier models).
func (s *Service) costEstimate(inputTokens, outputTokens int) models.CostEstimate {
	inputCost := float64(inputTokens) / 1_000_000 * s.llmConfig.InputCostPer1M
	outputCost := float64(outputTokens) / 1_000_000 * s.llmConfig.OutputCostPer1M
	return models.CostEstimate{
		InputCost:  inputCost,
		OutputCost: outputCost,
		TotalCost:  inputCost + outputCost,
		Currency:   "USD",
	}
}

// classifyDegradation maps a generation failure onto an error tag and its
// fixed user-facing answer
func classifyDegradation(err error) (string, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.GenerationErrorTimeout, timeoutAnswer
	case models.IsRateLimit(err):
		return models.GenerationErrorRateLimit, rateLimitAnswer
	default:
		var pe *models.ProviderError
		if errors.As(err, &pe) {
			return models.GenerationErrorUpstream, upstreamAnswer
		}
		return models.GenerationErrorGeneric, genericAnswer
	}
}
