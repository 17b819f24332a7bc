package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medanalyzer/pkg/errors"
)

const (
	errAnalysisFailed = "Failed to analyze symptoms with external API"
	errInternal       = "internal server error"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an AppError onto the response contract of
// POST /api/analyze.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("unexpected analysis error")
		respondWithError(w, http.StatusInternalServerError, errInternal)
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   appErr.Message,
			"details": appErr.Details,
		})
	case apperrors.ErrorTypeParse:
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":       appErr.Message,
			"rawResponse": appErr.Details,
		})
	case apperrors.ErrorTypeConfiguration:
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   errAnalysisFailed,
			"details": appErr.Message,
		})
	case apperrors.ErrorTypeExternal:
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   appErr.Message,
			"details": appErr.Details,
		})
	default:
		respondWithError(w, http.StatusInternalServerError, errInternal)
	}
}
