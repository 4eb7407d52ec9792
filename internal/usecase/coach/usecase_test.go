package coach

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stepone-ai/validation-backend/internal/entity"
	"go.uber.org/zap"
)

type fakeStatsSource struct {
	stats entity.UsageStats
	calls int
	err   error
}

func (f *fakeStatsSource) Stats(ctx context.Context, userID string) (*entity.UsageStats, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	stats := f.stats
	return &stats, nil
}

type fakeCoachStore struct {
	created   []*entity.CoachingSession
	createErr error
	completed []string
}

func (f *fakeCoachStore) Create(ctx context.Context, session *entity.CoachingSession) error {
	f.created = append(f.created, session)
	return f.createErr
}

func (f *fakeCoachStore) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.CoachingSession, error) {
	return f.created, nil
}

func (f *fakeCoachStore) MarkCompleted(ctx context.Context, id string) error {
	f.completed = append(f.completed, id)
	return nil
}

func TestStatsCaching(t *testing.T) {
	ctx := context.Background()
	source := &fakeStatsSource{stats: entity.UsageStats{TotalValidations: 4}}
	uc := NewUsecase(source, &fakeCoachStore{}, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		stats, err := uc.Stats(ctx, "user-1")
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalValidations != 4 {
			t.Fatalf("Stats() = %+v", stats)
		}
	}

	if source.calls != 1 {
		t.Fatalf("store reads = %d, want 1 (cached)", source.calls)
	}

	// Another user misses the cache.
	if _, err := uc.Stats(ctx, "user-2"); err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("store reads = %d, want 2", source.calls)
	}

	if _, err := uc.Stats(ctx, ""); !errors.Is(err, entity.ErrMissingUserID) {
		t.Fatalf("Stats(\"\") error = %v", err)
	}
}

func TestGenerateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("session reflects skill tier and recommendations", func(t *testing.T) {
		source := &fakeStatsSource{stats: entity.UsageStats{
			TotalValidations:           3,
			TotalBiasesDetected:        8,
			AverageValidationsPerMonth: 0.5,
		}}
		store := &fakeCoachStore{}
		uc := NewUsecase(source, store, time.Minute, zap.NewNop())

		session, err := uc.GenerateSession(ctx, "user-1")
		if err != nil {
			t.Fatalf("GenerateSession() error = %v", err)
		}

		if session.SkillLevel.Tier != entity.SkillDeveloping {
			t.Errorf("tier = %s, want %s", session.SkillLevel.Tier, entity.SkillDeveloping)
		}
		if len(session.Content) == 0 {
			t.Error("session has no lesson content")
		}
		ids := recommendationIDs(session.Recommendations)
		if len(ids) != 2 || ids[0] != "improve-questioning" || ids[1] != "increase-frequency" {
			t.Errorf("recommendations = %v", ids)
		}
		if len(store.created) != 1 {
			t.Fatalf("persisted sessions = %d", len(store.created))
		}
	})

	t.Run("persist failure still returns the session", func(t *testing.T) {
		source := &fakeStatsSource{}
		store := &fakeCoachStore{createErr: errors.New("db down")}
		uc := NewUsecase(source, store, time.Minute, zap.NewNop())

		session, err := uc.GenerateSession(ctx, "user-1")
		if err != nil {
			t.Fatalf("GenerateSession() error = %v", err)
		}
		if session.SkillLevel.Tier != entity.SkillBeginner {
			t.Errorf("tier = %s", session.SkillLevel.Tier)
		}
	})
}
