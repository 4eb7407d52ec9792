package flow

import (
	"context"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

type GatewayConnector interface {
	GeneratePersonas(ctx context.Context, idea, targetSegment string) ([]entity.Persona, error)
	PersonaReply(ctx context.Context, req *entity.PersonaReplyRequest) (*entity.PersonaReplyResponse, error)
	AnalyzeConversation(ctx context.Context, idea string, conversation []string) (*entity.Insights, error)
	AnalyzeMarket(ctx context.Context, idea string) (*entity.MarketAnalysis, error)
}

type ValidationStore interface {
	Save(ctx context.Context, session *entity.ValidationSession) error
}
