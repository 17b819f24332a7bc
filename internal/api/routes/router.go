package routes

import (
	"net/http"

	"github.com/zatekoja/medanalyzer/internal/api/handlers"
	"github.com/zatekoja/medanalyzer/internal/api/middleware"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	analysisHandler *handlers.AnalysisHandler
	formHandler     *handlers.FormHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	analysisHandler *handlers.AnalysisHandler,
	formHandler *handlers.FormHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		analysisHandler: analysisHandler,
		formHandler:     formHandler,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	r.mux.HandleFunc("POST /api/analyze", r.analysisHandler.Analyze)

	// Form page
	if r.formHandler != nil {
		r.mux.HandleFunc("GET /{$}", r.formHandler.ShowForm)
		r.mux.HandleFunc("POST /{$}", r.formHandler.SubmitForm)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.NoStore(handler)
	handler = middleware.Compression(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	// CORS wraps everything so preflight requests never reach the handlers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
