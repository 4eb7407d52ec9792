package voicestream

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the voice interview websocket route
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/voice-stream/{call_id}", h.Stream)
}
