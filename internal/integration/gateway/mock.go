package gateway

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"github.com/stepone-ai/validation-backend/internal/pkg/fallback"
	"go.uber.org/zap"
)

// MockConnector is an offline stand-in for the AI gateway. It serves
// demo personas and deterministic replies so the full flow can run
// without any provider credentials.
type MockConnector struct {
	responder *fallback.Responder
	logger    *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		responder: fallback.NewResponder(),
		logger:    logger,
	}
}

func (m *MockConnector) GeneratePersonas(ctx context.Context, idea, targetSegment string) ([]entity.Persona, error) {
	ctxzap.Info(ctx, "[MOCK] generating personas", zap.String("idea", idea))

	return []entity.Persona{
		{
			Name:               "Sarah Chen",
			Role:               "Small Business Owner",
			Demographics:       "35-44, urban, runs a 12-person design agency",
			PainPoints:         []string{"Too many manual processes", "Hard to track customer feedback"},
			Goals:              []string{"Grow revenue without growing headcount", "Keep clients happy"},
			PersonalityTraits:  []string{"pragmatic", "direct", "time-pressed"},
			CommunicationStyle: "professional and to the point",
		},
		{
			Name:               "Marcus Rodriguez",
			Role:               "Engineering Manager",
			Demographics:       "28-35, suburban, manages a platform team at a mid-size SaaS company",
			PainPoints:         []string{"Tool sprawl across the team", "Budget scrutiny on every new purchase"},
			Goals:              []string{"Consolidate tooling", "Justify spend with hard numbers"},
			PersonalityTraits:  []string{"analytical", "skeptical", "detail-oriented"},
			CommunicationStyle: "technical and analytical",
		},
		{
			Name:               "Emma Thompson",
			Role:               "Freelance Consultant",
			Demographics:       "25-34, remote, independent marketing consultant",
			PainPoints:         []string{"Irregular income", "Wears every hat in the business"},
			Goals:              []string{"Stabilize monthly revenue", "Spend less time on admin"},
			PersonalityTraits:  []string{"creative", "open-minded", "budget-conscious"},
			CommunicationStyle: "friendly and casual",
		},
	}, nil
}

func (m *MockConnector) PersonaReply(ctx context.Context, req *entity.PersonaReplyRequest) (
	*entity.PersonaReplyResponse, error,
) {
	ctxzap.Info(ctx, "[MOCK] generating persona reply", zap.String("persona", req.Persona.Name))

	message := req.UserMessage
	if message == "" && req.AudioBase64 != "" {
		// No real transcription offline. Stand in with a fixed utterance.
		message = "Tell me about your biggest challenge."
	}

	return &entity.PersonaReplyResponse{
		PersonaResponse:        m.responder.PersonaReply(message, req.Persona),
		TranscribedUserMessage: message,
		ConversationStatus:     "active",
	}, nil
}

func (m *MockConnector) AnalyzeConversation(ctx context.Context, idea string, conversation []string) (
	*entity.Insights, error,
) {
	ctxzap.Info(ctx, "[MOCK] analyzing conversation", zap.Int("turn_count", len(conversation)))

	insights := m.responder.CoachingInsights()

	return &insights, nil
}

func (m *MockConnector) AnalyzeMarket(ctx context.Context, idea string) (*entity.MarketAnalysis, error) {
	ctxzap.Info(ctx, "[MOCK] analyzing market", zap.String("idea", idea))

	analysis := m.responder.MarketAnalysis()

	return &analysis, nil
}

func (m *MockConnector) Transcribe(ctx context.Context, audioData []byte, filename string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] transcribing audio", zap.Int("size", len(audioData)))

	if len(audioData) == 0 {
		return "", entity.NewValidationError("empty audio data provided")
	}

	return fmt.Sprintf("Mock transcription of %s (%d bytes).", filename, len(audioData)), nil
}

func (m *MockConnector) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	ctxzap.Info(ctx, "[MOCK] synthesizing speech", zap.String("voice", voice))

	// Callers only forward the bytes, so any non-empty payload works.
	return []byte("mock-audio:" + text), nil
}

func (m *MockConnector) HealthCheck(ctx context.Context) error {
	return nil
}
