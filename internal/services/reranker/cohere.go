package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

// CohereClient calls the Cohere rerank endpoint to score candidate passages
// against a query with a cross-encoder model.
type CohereClient struct {
	config *common.CohereConfig
	client *http.Client
	logger arbor.ILogger
}

// NewCohereClient creates a rerank provider client from configuration
func NewCohereClient(config *common.CohereConfig, logger arbor.ILogger) (*CohereClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Cohere API key is required (set via COHERE_API_KEY or cohere.api_key in config)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	return &CohereClient{
		config: config,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores the documents against the query and returns up to topN
// results in descending relevance order. Result indices refer to positions
// in the submitted document list.
func (c *CohereClient) Rerank(ctx context.Context, query string, documents []string, topN int) ([]interfaces.RerankResult, error) {
	req := rerankRequest{
		Model:     c.config.Model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rerank request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/rerank", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &models.ProviderError{Provider: "cohere", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &models.RateLimitError{
			Provider: "cohere",
			Err:      fmt.Errorf("rerank returned %s", resp.Status),
		}
	}
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &models.ProviderError{
			Provider:   "cohere",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("rerank returned %s: %s", resp.Status, string(snippet)),
		}
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, &models.ProviderError{
			Provider: "cohere",
			Err:      fmt.Errorf("failed to decode rerank response: %w", err),
		}
	}

	results := make([]interfaces.RerankResult, len(rerankResp.Results))
	for i, r := range rerankResp.Results {
		results[i] = interfaces.RerankResult{
			Index:          r.Index,
			RelevanceScore: r.RelevanceScore,
		}
	}
	return results, nil
}
