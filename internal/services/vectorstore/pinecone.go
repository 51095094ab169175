package vectorstore

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

const pineconeAPIVersion = "2025-01"

// PineconeClient is a REST client for a Pinecone index with hosted
// embeddings. Embedding requests go to the control plane; vector reads and
// writes go to the index host. The client never computes vectors itself.
type PineconeClient struct {
	config *common.PineconeConfig
	client *http.Client
	logger arbor.ILogger
}

// NewPineconeClient creates a vector provider client from configuration
func NewPineconeClient(config *common.PineconeConfig, logger arbor.ILogger) (*PineconeClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Pinecone API key is required (set via PINECONE_API_KEY or pinecone.api_key in config)")
	}
	if config.IndexHost == "" {
		return nil, fmt.Errorf("Pinecone index host is required (set via PINECONE_INDEX_HOST or pinecone.index_host in config)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	return &PineconeClient{
		config: config,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// vectorMetadata is the flattened metadata payload stored alongside each
// vector. The chunk text rides along so query results can cite passages
// without a second lookup.
type vectorMetadata struct {
	Text          string `json:"text"`
	Source        string `json:"source,omitempty"`
	Title         string `json:"title,omitempty"`
	Section       string `json:"section,omitempty"`
	Position      int    `json:"position"`
	TokenEstimate int    `json:"token_estimate"`
	CharCount     int    `json:"char_count"`
}

type embedRequest struct {
	Model      string            `json:"model"`
	Parameters map[string]string `json:"parameters"`
	Inputs     []embedInput      `json:"inputs"`
}

type embedInput struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Data []struct {
		Values []float32 `json:"values"`
	} `json:"data"`
}

// EmbedPassages embeds texts in passage mode for indexing
func (c *PineconeClient) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embed(ctx, texts, "passage")
}

// EmbedQuery embeds a single query text in query mode
func (c *PineconeClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text}, "query")
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, &models.ProviderError{
			Provider: "pinecone",
			Err:      fmt.Errorf("expected 1 query embedding, got %d", len(vectors)),
		}
	}
	return vectors[0], nil
}

func (c *PineconeClient) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	inputs := make([]embedInput, len(texts))
	for i, text := range texts {
		inputs[i] = embedInput{Text: text}
	}

	req := embedRequest{
		Model: c.config.EmbeddingModel,
		Parameters: map[string]string{
			"input_type": inputType,
			"truncate":   "END",
		},
		Inputs: inputs,
	}

	var resp embedResponse
	if err := c.postJSON(ctx, c.config.ControlURL+"/embed", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, &models.ProviderError{
			Provider: "pinecone",
			Err:      fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data)),
		}
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Values
	}
	return vectors, nil
}

type upsertVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata vectorMetadata `json:"metadata"`
}

// Upsert writes vectors with metadata to the index
func (c *PineconeClient) Upsert(ctx context.Context, vectors []interfaces.PassageVector) error {
	payload := make([]upsertVector, len(vectors))
	for i, v := range vectors {
		payload[i] = upsertVector{
			ID:     v.ID,
			Values: v.Values,
			Metadata: vectorMetadata{
				Text:          v.Chunk.Text,
				Source:        v.Chunk.Metadata.Source,
				Title:         v.Chunk.Metadata.Title,
				Section:       v.Chunk.Metadata.Section,
				Position:      v.Chunk.Metadata.Position,
				TokenEstimate: v.Chunk.Metadata.TokenEstimate,
				CharCount:     v.Chunk.Metadata.CharCount,
			},
		}
	}

	body := map[string]any{
		"vectors":   payload,
		"namespace": c.config.Namespace,
	}
	return c.postJSON(ctx, c.config.IndexHost+"/vectors/upsert", body, nil)
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata vectorMetadata `json:"metadata"`
	} `json:"matches"`
}

// Query runs a nearest-neighbor search and returns matches in provider
// score order (descending cosine similarity)
func (c *PineconeClient) Query(ctx context.Context, vector []float32, topK int) ([]models.RetrievedMatch, error) {
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
		"namespace":       c.config.Namespace,
	}

	var resp queryResponse
	if err := c.postJSON(ctx, c.config.IndexHost+"/query", body, &resp); err != nil {
		return nil, err
	}

	matches := make([]models.RetrievedMatch, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = models.RetrievedMatch{
			ID:    m.ID,
			Score: m.Score,
			Text:  m.Metadata.Text,
			Metadata: models.ChunkMetadata{
				Source:        m.Metadata.Source,
				Title:         m.Metadata.Title,
				Section:       m.Metadata.Section,
				Position:      m.Metadata.Position,
				TokenEstimate: m.Metadata.TokenEstimate,
				CharCount:     m.Metadata.CharCount,
			},
		}
	}
	return matches, nil
}

type statsResponse struct {
	TotalVectorCount int `json:"totalVectorCount"`
	Dimension        int `json:"dimension"`
}

// Stats returns the index cardinality and dimension
func (c *PineconeClient) Stats(ctx context.Context) (*models.IndexStats, error) {
	var resp statsResponse
	if err := c.postJSON(ctx, c.config.IndexHost+"/describe_index_stats", map[string]any{}, &resp); err != nil {
		return nil, err
	}

	return &models.IndexStats{
		VectorCount: resp.TotalVectorCount,
		Dimension:   resp.Dimension,
		IndexName:   c.config.IndexName,
		Namespace:   c.config.Namespace,
	}, nil
}

// DeleteAll removes every vector in the namespace unconditionally
func (c *PineconeClient) DeleteAll(ctx context.Context) error {
	body := map[string]any{
		"deleteAll": true,
		"namespace": c.config.Namespace,
	}
	return c.postJSON(ctx, c.config.IndexHost+"/vectors/delete", body, nil)
}

// EmbeddingModel returns the hosted embedding model name
func (c *PineconeClient) EmbeddingModel() string {
	return c.config.EmbeddingModel
}

// IndexName returns the configured index name
func (c *PineconeClient) IndexName() string {
	return c.config.IndexName
}

// postJSON issues a JSON POST and classifies failures: 429 responses become
// rate-limit errors so callers can surface a retry-friendly message, all
// other non-2xx responses become provider errors with the status attached.
func (c *PineconeClient) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.config.APIKey)
	req.Header.Set("X-Pinecone-API-Version", pineconeAPIVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return &models.ProviderError{Provider: "pinecone", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &models.RateLimitError{
			Provider: "pinecone",
			Err:      fmt.Errorf("POST %s returned %s", url, resp.Status),
		}
	}
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &models.ProviderError{
			Provider:   "pinecone",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("POST %s returned %s: %s", url, resp.Status, string(snippet)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &models.ProviderError{
				Provider: "pinecone",
				Err:      fmt.Errorf("failed to decode response: %w", err),
			}
		}
	}
	return nil
}
