package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

// DocumentHandler handles document ingestion and index management
type DocumentHandler struct {
	chunker interfaces.Chunker
	store   interfaces.VectorStore
	logger  arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(chunker interfaces.Chunker, store interfaces.VectorStore, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		chunker: chunker,
		store:   store,
		logger:  logger,
	}
}

// DocumentsHandler routes /api/documents by method: POST ingests a document,
// DELETE clears the index
func (h *DocumentHandler) DocumentsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.ingest(w, r)
	case http.MethodDelete:
		h.clear(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ingest chunks the submitted document and writes the chunks to the vector
// index. A document that produces zero chunks is a success with zero counts.
func (h *DocumentHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var doc models.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(doc.Text) == "" {
		WriteError(w, http.StatusBadRequest, "Document text is required")
		return
	}

	docID := common.NewDocumentID()

	chunks := h.chunker.Chunk(doc)
	if len(chunks) == 0 {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "success",
			"document_id": docID,
			"chunks":      0,
			"result":      &models.UpsertResult{},
		})
		return
	}

	result, err := h.store.Upsert(r.Context(), chunks)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("document_id", docID).
			Int("chunks", len(chunks)).
			Str("source", doc.Source).
			Msg("Document ingestion failed")
		writeUpstreamError(w, err)
		return
	}

	h.logger.Info().
		Str("document_id", docID).
		Int("chunks", len(chunks)).
		Int("upserted", result.UpsertedCount).
		Str("source", doc.Source).
		Msg("Document ingested")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"document_id": docID,
		"chunks":      len(chunks),
		"result":      result,
	})
}

// clear removes every vector from the index
func (h *DocumentHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Index clear failed")
		writeUpstreamError(w, err)
		return
	}

	h.logger.Info().Msg("Index cleared")
	WriteSuccess(w, "Index cleared")
}

// StatsHandler returns index cardinality and dimension
func (h *DocumentHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Index stats lookup failed")
		writeUpstreamError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// writeUpstreamError maps the shared error taxonomy onto HTTP statuses:
// rate limits become 429, classified provider failures become 502, anything
// else is a 500.
func writeUpstreamError(w http.ResponseWriter, err error) {
	if models.IsRateLimit(err) {
		WriteError(w, http.StatusTooManyRequests, "Provider rate limit exceeded, retry shortly")
		return
	}

	var providerErr *models.ProviderError
	if errors.As(err, &providerErr) {
		WriteError(w, http.StatusBadGateway, "Upstream provider error: "+providerErr.Error())
		return
	}

	WriteError(w, http.StatusInternalServerError, err.Error())
}
