package models

// Document represents raw text submitted for ingestion. It is transient:
// the chunker consumes it and the vector index becomes the system of record.
type Document struct {
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
}

// ChunkMetadata carries the citation metadata attached to every chunk
type ChunkMetadata struct {
	Source        string `json:"source"`
	Title         string `json:"title"`
	Section       string `json:"section,omitempty"`
	Position      int    `json:"position"`       // Ordinal within the parent document, zero-based
	TokenEstimate int    `json:"token_estimate"` // ceil(char_count / 4)
	CharCount     int    `json:"char_count"`
}

// Chunk is a bounded passage of a source document. Immutable once created.
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// UpsertResult summarizes a batch ingestion into the vector index
type UpsertResult struct {
	UpsertedCount  int    `json:"upserted_count"`
	DurationMs     int64  `json:"duration_ms"`
	IndexName      string `json:"index_name"`
	EmbeddingModel string `json:"embedding_model"`
}

// IndexStats reports the cardinality and shape of the hosted index
type IndexStats struct {
	VectorCount int    `json:"vector_count"`
	Dimension   int    `json:"dimension"`
	IndexName   string `json:"index_name"`
	Namespace   string `json:"namespace,omitempty"`
}
