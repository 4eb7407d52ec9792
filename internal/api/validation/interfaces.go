package validation

import (
	"context"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

type CoachUsecase interface {
	Stats(ctx context.Context, userID string) (*entity.UsageStats, error)
	GenerateSession(ctx context.Context, userID string) (*entity.CoachingSession, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]*entity.CoachingSession, error)
	CompleteSession(ctx context.Context, id string) error
}

type HistoryReader interface {
	Get(ctx context.Context, id string) (*entity.ValidationRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.ValidationRecord, error)
}
