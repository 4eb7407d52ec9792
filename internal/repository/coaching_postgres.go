package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stepone-ai/validation-backend/internal/entity"
)

// CoachingRepository defines the interface for coaching session persistence
type CoachingRepository interface {
	Create(ctx context.Context, session *entity.CoachingSession) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.CoachingSession, error)
	MarkCompleted(ctx context.Context, id string) error
}

var _ CoachingRepository = &CoachingPostgres{}

// CoachingPostgres implements CoachingRepository using PostgreSQL
type CoachingPostgres struct {
	db *pgxpool.Pool
}

func NewCoachingPostgres(db *pgxpool.Pool) *CoachingPostgres {
	return &CoachingPostgres{db: db}
}

func (r *CoachingPostgres) Create(ctx context.Context, session *entity.CoachingSession) error {
	sessionID, err := uuid.Parse(session.ID)
	if err != nil {
		return &entity.PersistenceError{Op: "create", Err: fmt.Errorf("parse session ID: %w", err)}
	}

	content, err := json.Marshal(session.Content)
	if err != nil {
		return &entity.PersistenceError{Op: "create", Err: fmt.Errorf("marshal content: %w", err)}
	}

	recommendations, err := json.Marshal(session.Recommendations)
	if err != nil {
		return &entity.PersistenceError{Op: "create", Err: fmt.Errorf("marshal recommendations: %w", err)}
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO coaching_sessions
			(id, user_id, session_type, topic, content, recommendations, skill_tier, skill_progress, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sessionID, session.UserID, session.Type, session.Topic, content, recommendations,
		string(session.SkillLevel.Tier), session.SkillLevel.Progress, session.Completed, session.CreatedAt,
	)
	if err != nil {
		return &entity.PersistenceError{Op: "create", Err: fmt.Errorf("insert coaching session: %w", err)}
	}

	return nil
}

func (r *CoachingPostgres) ListByUser(ctx context.Context, userID string, limit int) (
	[]*entity.CoachingSession, error,
) {
	if userID == "" {
		return nil, entity.ErrMissingUserID
	}

	query := `
		SELECT id, user_id, session_type, topic, content, recommendations, skill_tier, skill_progress, completed, created_at
		FROM coaching_sessions WHERE user_id = $1
		ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "list", Err: fmt.Errorf("list coaching sessions: %w", err)}
	}
	defer rows.Close()

	var sessions []*entity.CoachingSession
	for rows.Next() {
		session := &entity.CoachingSession{}
		var content, recommendations []byte
		var tier string

		err := rows.Scan(&session.ID, &session.UserID, &session.Type, &session.Topic,
			&content, &recommendations, &tier, &session.SkillLevel.Progress,
			&session.Completed, &session.CreatedAt)
		if err != nil {
			return nil, &entity.PersistenceError{Op: "list", Err: fmt.Errorf("scan coaching session: %w", err)}
		}
		session.SkillLevel.Tier = entity.SkillTier(tier)

		if err := json.Unmarshal(content, &session.Content); err != nil {
			return nil, &entity.PersistenceError{Op: "list", Err: fmt.Errorf("unmarshal content: %w", err)}
		}
		if err := json.Unmarshal(recommendations, &session.Recommendations); err != nil {
			return nil, &entity.PersistenceError{Op: "list", Err: fmt.Errorf("unmarshal recommendations: %w", err)}
		}

		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, &entity.PersistenceError{Op: "list", Err: fmt.Errorf("iterate coaching sessions: %w", err)}
	}

	return sessions, nil
}

func (r *CoachingPostgres) MarkCompleted(ctx context.Context, id string) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return &entity.PersistenceError{Op: "complete", Err: fmt.Errorf("parse session ID: %w", err)}
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE coaching_sessions SET completed = TRUE WHERE id = $1`,
		sessionID,
	)
	if err != nil {
		return &entity.PersistenceError{Op: "complete", Err: fmt.Errorf("update coaching session: %w", err)}
	}

	if tag.RowsAffected() == 0 {
		return entity.ErrValidationNotFound
	}

	return nil
}
