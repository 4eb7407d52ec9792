package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"github.com/stepone-ai/validation-backend/internal/pkg/formatter"
	"github.com/stepone-ai/validation-backend/internal/pkg/logger"
	"github.com/stepone-ai/validation-backend/internal/pkg/response"
	"github.com/stepone-ai/validation-backend/internal/usecase/flow"
	"go.uber.org/zap"
)

type Handler struct {
	registry      *flow.Registry
	newController func(userID string) *flow.Controller
	coach         CoachUsecase
	history       HistoryReader
	formatters    *formatter.Factory
}

func NewHandler(
	registry *flow.Registry,
	newController func(userID string) *flow.Controller,
	coach CoachUsecase,
	history HistoryReader,
) *Handler {
	return &Handler{
		registry:      registry,
		newController: newController,
		coach:         coach,
		history:       history,
		formatters:    formatter.NewFactory(),
	}
}

// StartValidation handles POST /validations - start a new validation run
func (h *Handler) StartValidation(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartValidation")

	var req entity.StartValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		response.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	controller := h.newController(req.UserID)

	personas, err := controller.Start(ctx, req.Idea, req.TargetSegment)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	h.registry.Put(controller)

	state := controller.State()
	response.Created(w, entity.StartValidationResponse{
		SessionID: state.SessionID,
		Step:      state.Step,
		Progress:  state.Progress,
		Personas:  personas,
	})
}

// GetState handles GET /validations/{id} - current step and progress
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetState")

	controller, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, controller.State())
}

// SelectPersona handles POST /validations/{id}/persona
func (h *Handler) SelectPersona(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SelectPersona")

	controller, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	var req entity.SelectPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	persona, err := controller.SelectPersona(ctx, req.Index)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, toSelectPersonaResponse(persona, controller.State()))
}

// SendMessage handles POST /validations/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SendMessage")

	controller, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	var req entity.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := controller.SendMessage(ctx, req.Message)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// AnalyzeInterview handles POST /validations/{id}/analyze
func (h *Handler) AnalyzeInterview(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "AnalyzeInterview")

	controller, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	insights, err := controller.AnalyzeInterview(ctx)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, insights)
}

// RunMarketAnalysis handles POST /validations/{id}/market
func (h *Handler) RunMarketAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "RunMarketAnalysis")

	controller, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	analysis, err := controller.RunMarketAnalysis(ctx)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, analysis)
}

// GetInsights handles GET /validations/{id}/insights
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetInsights")

	controller, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, controller.AllInsights())
}

// GetResults handles GET /validations/{id}/results
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetResults")

	controller, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	results, err := controller.Results()
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, results)
}

// ExportResults handles GET /validations/{id}/export?format=
func (h *Handler) ExportResults(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ExportResults")

	controller, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	format := entity.ResultFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}
	if !format.IsValid() {
		response.Error(w, http.StatusBadRequest, fmt.Sprintf("unsupported format: %s", format))
		return
	}

	f, err := h.formatters.Create(format)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	session := controller.Session()
	body, err := f.Format(formatter.BuildReport(session))
	if err != nil {
		ctxzap.Error(ctx, "failed to render report", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	ctxzap.Info(ctx, "report exported",
		zap.String("session_id", session.ID),
		zap.String("format", string(format)),
	)

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=validation-report%s", f.FileExtension()))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// GetEmailTemplate handles GET /validations/{id}/email
func (h *Handler) GetEmailTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetEmailTemplate")

	controller, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, map[string]string{
		"email_template": formatter.BuildEmailTemplate(controller.Session()),
	})
}

// GetHistory handles GET /validations?user_id=&limit=
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetHistory")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := h.history.ListByUser(ctx, userID, limit)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, entity.HistoryResponse{Validations: records})
}

// GetValidationRecord handles GET /validations/{id}/record - persisted view
func (h *Handler) GetValidationRecord(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetValidationRecord")

	record, err := h.history.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, record)
}

// GetStats handles GET /stats?user_id=
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetStats")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	stats, err := h.coach.Stats(ctx, userID)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, stats)
}

// GenerateCoaching handles POST /coaching
func (h *Handler) GenerateCoaching(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GenerateCoaching")

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		response.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	session, err := h.coach.GenerateSession(ctx, req.UserID)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Created(w, session)
}

// ListCoaching handles GET /coaching?user_id=&limit=
func (h *Handler) ListCoaching(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListCoaching")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	sessions, err := h.coach.ListSessions(ctx, userID, limit)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.Success(w, sessions)
}

// CompleteCoaching handles POST /coaching/{id}/complete
func (h *Handler) CompleteCoaching(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CompleteCoaching")

	if err := h.coach.CompleteSession(ctx, chi.URLParam(r, "id")); err != nil {
		h.handleError(ctx, w, err)
		return
	}

	response.NoContent(w)
}

// handleError maps domain errors to HTTP status codes.
func (h *Handler) handleError(ctx context.Context, w http.ResponseWriter, err error) {
	ctxzap.Error(ctx, "request failed", zap.Error(err))

	switch {
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrValidationNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrOperationInFlight),
		errors.Is(err, entity.ErrInvalidFlowStep):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, entity.ErrMissingUserID),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidFormat):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		var validationErr *entity.ValidationError
		var remoteErr *entity.RemoteCallError
		switch {
		case errors.As(err, &validationErr):
			response.Error(w, http.StatusBadRequest, validationErr.Message)
		case errors.As(err, &remoteErr):
			response.Error(w, http.StatusBadGateway, remoteErr.Message)
		default:
			response.Error(w, http.StatusInternalServerError, "internal server error")
		}
	}
}
