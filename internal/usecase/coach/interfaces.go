package coach

import (
	"context"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

type StatsSource interface {
	Stats(ctx context.Context, userID string) (*entity.UsageStats, error)
}

type CoachingStore interface {
	Create(ctx context.Context, session *entity.CoachingSession) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.CoachingSession, error)
	MarkCompleted(ctx context.Context, id string) error
}
