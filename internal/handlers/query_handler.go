package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

// QueryHandler handles question answering over the indexed corpus
type QueryHandler struct {
	pipeline interfaces.QueryPipeline
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(pipeline interfaces.QueryPipeline, logger arbor.ILogger) *QueryHandler {
	return &QueryHandler{
		pipeline: pipeline,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// QueryHandler answers a question. Degraded pipelines (rerank fallback,
// failed generation) still return 200 with degradation flags in the result
// metadata; only validation and retrieval failures map to error statuses.
func (h *QueryHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var request models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.validate.Struct(&request); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid query request: "+err.Error())
		return
	}

	result, err := h.pipeline.Query(r.Context(), &request)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			WriteError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		if models.IsRateLimit(err) {
			writeQueryError(w, http.StatusTooManyRequests, "Provider rate limit exceeded, retry shortly", err)
			return
		}

		h.logger.Error().Err(err).Msg("Query failed")

		var providerErr *models.ProviderError
		if errors.As(err, &providerErr) {
			writeQueryError(w, http.StatusBadGateway, "Upstream provider error: "+providerErr.Error(), err)
			return
		}
		writeQueryError(w, http.StatusInternalServerError, err.Error(), err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// writeQueryError writes a failure payload, attaching whatever stage timing
// the pipeline collected before it aborted
func writeQueryError(w http.ResponseWriter, statusCode int, message string, err error) {
	payload := map[string]interface{}{
		"status": "error",
		"error":  message,
	}

	var retrievalErr *models.RetrievalError
	if errors.As(err, &retrievalErr) {
		payload["timing"] = retrievalErr.Timing
	}

	WriteJSON(w, statusCode, payload)
}
