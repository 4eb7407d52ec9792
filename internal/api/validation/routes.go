package validation

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers validation flow, stats and coaching routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/validations", func(r chi.Router) {
		r.Post("/", h.StartValidation)
		r.Get("/", h.GetHistory)
		r.Get("/{id}", h.GetState)
		r.Get("/{id}/record", h.GetValidationRecord)
		r.Post("/{id}/persona", h.SelectPersona)
		r.Post("/{id}/messages", h.SendMessage)
		r.Post("/{id}/analyze", h.AnalyzeInterview)
		r.Post("/{id}/market", h.RunMarketAnalysis)
		r.Get("/{id}/insights", h.GetInsights)
		r.Get("/{id}/results", h.GetResults)
		r.Get("/{id}/export", h.ExportResults)
		r.Get("/{id}/email", h.GetEmailTemplate)
	})

	r.Get("/stats", h.GetStats)

	r.Route("/coaching", func(r chi.Router) {
		r.Post("/", h.GenerateCoaching)
		r.Get("/", h.ListCoaching)
		r.Post("/{id}/complete", h.CompleteCoaching)
	})
}
