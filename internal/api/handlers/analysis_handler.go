package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zatekoja/medanalyzer/internal/domain/entities"
)

const maxRequestBodyBytes = 64 << 10

// Analyzer produces an analysis for one submission
type Analyzer interface {
	Analyze(ctx context.Context, sub *entities.Submission) (*entities.AnalysisResult, error)
}

// AnalysisHandler handles analysis HTTP requests
type AnalysisHandler struct {
	service Analyzer
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service Analyzer) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
	}
}

// Analyze handles POST /api/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var sub entities.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.service.Analyze(r.Context(), &sub)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
