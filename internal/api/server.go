package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stepone-ai/validation-backend/internal/api/docs"
	"github.com/stepone-ai/validation-backend/internal/api/middleware"
	validationapi "github.com/stepone-ai/validation-backend/internal/api/validation"
	"github.com/stepone-ai/validation-backend/internal/api/voicestream"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(validationHandler *validationapi.Handler, voiceHandler *voicestream.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)   // Recover from panics
	r.Use(chimiddleware.RequestID)   // Add request ID
	r.Use(middleware.Logger(logger)) // Log requests
	r.Use(middleware.CORS)           // Handle CORS

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// REST routes get the default timeout; the voice websocket is
	// long-lived and stays outside of it.
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		validationapi.RegisterRoutes(r, validationHandler)
	})

	voicestream.RegisterRoutes(r, voiceHandler)

	return r
}
