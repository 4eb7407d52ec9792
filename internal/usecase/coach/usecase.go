package coach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"go.uber.org/zap"
)

// lessons carries one canned lesson per skill tier.
var lessons = map[entity.SkillTier]struct {
	topic    string
	sections []entity.LessonSection
}{
	entity.SkillBeginner: {
		topic: "Why talk to customers at all",
		sections: []entity.LessonSection{
			{Heading: "Start with problems, not solutions", Points: []string{
				"Ask about the last time the problem occurred, not whether your idea is good.",
				"Facts about the past beat opinions about the future.",
			}},
			{Heading: "Your first interview", Points: []string{
				"One persona, five questions, fifteen minutes.",
				"End by asking what you should have asked.",
			}},
		},
	},
	entity.SkillNovice: {
		topic: "Getting honest answers",
		sections: []entity.LessonSection{
			{Heading: "Avoid the compliment trap", Points: []string{
				"People are polite; discount enthusiasm that costs them nothing.",
				"Ask what they currently pay, in money or time, to solve the problem.",
			}},
		},
	},
	entity.SkillDeveloping: {
		topic: "Detecting your own bias",
		sections: []entity.LessonSection{
			{Heading: "Leading questions", Points: []string{
				"'Wouldn't it be great if...' tells the subject the answer you want.",
				"Rewrite each of your flagged questions before the next interview.",
			}},
			{Heading: "Vague answers", Points: []string{
				"Follow 'I would definitely use that' with 'when did you last look for a tool like this?'",
			}},
		},
	},
	entity.SkillProficient: {
		topic: "From interviews to decisions",
		sections: []entity.LessonSection{
			{Heading: "Triangulate", Points: []string{
				"Compare insights across personas before changing the product.",
				"One loud objection is an anecdote; the same objection three times is data.",
			}},
		},
	},
	entity.SkillExpert: {
		topic: "Scaling your validation practice",
		sections: []entity.LessonSection{
			{Heading: "Teach the loop", Points: []string{
				"Codify your interview script so it survives handoff.",
				"Track willingness-to-pay trends over time, not per interview.",
			}},
		},
	},
}

const statsCacheKeyPrefix = "stats:"

// CoachUsecase implements coaching business logic
type CoachUsecase struct {
	statsSource StatsSource
	store       CoachingStore
	statsCache  *gocache.Cache
	logger      *zap.Logger
}

// NewUsecase creates a new coach use case
func NewUsecase(statsSource StatsSource, store CoachingStore, statsTTL time.Duration, logger *zap.Logger) *CoachUsecase {
	return &CoachUsecase{
		statsSource: statsSource,
		store:       store,
		statsCache:  gocache.New(statsTTL, time.Minute),
		logger:      logger,
	}
}

// Stats returns the user's usage statistics. Values are cached for a
// short TTL, so dashboards polling in a loop do not hammer the store.
func (uc *CoachUsecase) Stats(ctx context.Context, userID string) (*entity.UsageStats, error) {
	if userID == "" {
		return nil, entity.ErrMissingUserID
	}

	if cached, ok := uc.statsCache.Get(statsCacheKeyPrefix + userID); ok {
		return cached.(*entity.UsageStats), nil
	}

	stats, err := uc.statsSource.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load usage stats: %w", err)
	}

	uc.statsCache.SetDefault(statsCacheKeyPrefix+userID, stats)

	return stats, nil
}

// GenerateSession derives a coaching session from the user's current
// stats and persists it. The in-memory result is returned even when
// the save fails.
func (uc *CoachUsecase) GenerateSession(ctx context.Context, userID string) (*entity.CoachingSession, error) {
	stats, err := uc.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	skill := SkillLevelFor(*stats)
	lesson := lessons[skill.Tier]

	session := &entity.CoachingSession{
		ID:              uuid.New().String(),
		UserID:          userID,
		Type:            "lesson",
		Topic:           lesson.topic,
		Content:         lesson.sections,
		Recommendations: Recommendations(*stats),
		SkillLevel:      skill,
		CreatedAt:       time.Now().UTC(),
	}

	if err := uc.store.Create(ctx, session); err != nil {
		ctxzap.Error(ctx, "failed to persist coaching session",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	ctxzap.Info(ctx, "coaching session generated",
		zap.String("user_id", userID),
		zap.String("tier", string(skill.Tier)),
		zap.Int("recommendation_count", len(session.Recommendations)),
	)

	return session, nil
}

// ListSessions returns the user's coaching history, newest first.
func (uc *CoachUsecase) ListSessions(ctx context.Context, userID string, limit int) ([]*entity.CoachingSession, error) {
	sessions, err := uc.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list coaching sessions: %w", err)
	}

	return sessions, nil
}

// CompleteSession marks a coaching session as worked through.
func (uc *CoachUsecase) CompleteSession(ctx context.Context, id string) error {
	if err := uc.store.MarkCompleted(ctx, id); err != nil {
		return fmt.Errorf("complete coaching session: %w", err)
	}

	return nil
}
