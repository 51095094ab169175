package models

// QueryRequest is the query entry point payload
type QueryRequest struct {
	Query string `json:"query" validate:"required,min=3"`
	TopK  int    `json:"top_k,omitempty" validate:"omitempty,gte=1"`
	TopN  int    `json:"top_n,omitempty" validate:"omitempty,gte=1"`
}

// RetrievedMatch is a read-only projection of a nearest-neighbor hit,
// produced per query and never persisted. Score is cosine similarity
// in [-1, 1], higher is better. Index is the provider-given ordinal,
// kept as the tie-break when scores are equal.
type RetrievedMatch struct {
	ID       string        `json:"id"`
	Score    float64       `json:"score"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Index    int           `json:"index"`
}

// RankedChunk is a retrieved match after reranking. RankingScore is the
// single canonical ranking key: adapters normalize provider-specific score
// fields into it, and it supersedes the retrieval Score once present.
type RankedChunk struct {
	RetrievedMatch
	RankingScore float64 `json:"ranking_score"`
	RerankIndex  int     `json:"rerank_index"`
}

// RerankOutcome is the reranker adapter result. Fallback is true when the
// cross-encoder provider failed and the ordering reverted to retrieval scores.
type RerankOutcome struct {
	Matches    []RankedChunk `json:"matches"`
	Fallback   bool          `json:"fallback"`
	DurationMs int64         `json:"duration_ms"`
}

// Citation is derived from a generated answer's inline bracket markers.
// Number is 1-based and matches the prompt-visible context index.
type Citation struct {
	Number  int    `json:"number"`
	Text    string `json:"text"`
	Source  string `json:"source,omitempty"`
	Section string `json:"section,omitempty"`
}

// Source is a numbered entry in a query response, mirroring the final
// reranked order. Number matches the bracket indices in the prompt.
type Source struct {
	Number       int     `json:"number"`
	Title        string  `json:"title"`
	Source       string  `json:"source,omitempty"`
	Section      string  `json:"section,omitempty"`
	RankingScore float64 `json:"ranking_score"`
	Preview      string  `json:"preview"`
}

// TokenUsage is a char/4 approximation of prompt and completion tokens
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// CostEstimate is derived from configured provider pricing. All-zero is a
// legitimate value for free-tier models, not an error.
type CostEstimate struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
	Currency   string  `json:"currency"`
}

// PipelineTiming records per-stage durations for one query. Stages that
// never ran keep their zero value.
type PipelineTiming struct {
	RetrievalMs  int64 `json:"retrieval_ms"`
	RerankMs     int64 `json:"rerank_ms,omitempty"`
	GenerationMs int64 `json:"generation_ms,omitempty"`
	TotalMs      int64 `json:"total_ms"`
}

// GeneratedAnswer is the answer generator result. ErrorTag is set when the
// generation stage degraded; the answer text is then a fixed user-facing
// message and the result is still a success payload.
type GeneratedAnswer struct {
	Answer    string       `json:"answer"`
	Citations []Citation   `json:"citations"`
	Tokens    TokenUsage   `json:"tokens"`
	Cost      CostEstimate `json:"cost"`
	Model     string       `json:"model"`
	ErrorTag  string       `json:"error,omitempty"`
}

// QueryMetadata carries degradation flags and request parameters back to
// the caller so degraded answers can be rendered with a confidence hint.
type QueryMetadata struct {
	TopK            int    `json:"top_k"`
	TopN            int    `json:"top_n"`
	NoDocuments     bool   `json:"no_documents,omitempty"`
	RerankFallback  bool   `json:"rerank_fallback,omitempty"`
	GenerationError string `json:"generation_error,omitempty"`
	Model           string `json:"model,omitempty"`
}

// QueryResult aggregates everything a single question produced. Created per
// request, returned, and discarded.
type QueryResult struct {
	Answer    string         `json:"answer"`
	Citations []Citation     `json:"citations"`
	Sources   []Source       `json:"sources"`
	Timing    PipelineTiming `json:"timing"`
	Tokens    TokenUsage     `json:"tokens"`
	Cost      CostEstimate   `json:"cost"`
	Metadata  QueryMetadata  `json:"metadata"`
}
