package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stepone-ai/validation-backend/internal/entity"
)

// ValidationRepository defines the interface for validation persistence
type ValidationRepository interface {
	Save(ctx context.Context, session *entity.ValidationSession) error
	Get(ctx context.Context, id string) (*entity.ValidationRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.ValidationRecord, error)
	Stats(ctx context.Context, userID string) (*entity.UsageStats, error)
}

var _ ValidationRepository = &ValidationPostgres{}

// ValidationPostgres implements ValidationRepository using PostgreSQL.
// A session decomposes into one parent row plus persona, turn, insight
// and market children; saving the same session twice upserts in place.
type ValidationPostgres struct {
	db *pgxpool.Pool
}

func NewValidationPostgres(db *pgxpool.Pool) *ValidationPostgres {
	return &ValidationPostgres{db: db}
}

// Save decomposes the aggregate into parent-then-children statements.
// The parent upsert makes a second save idempotent; a failure partway
// leaves earlier rows in place, which readers tolerate. Turns are
// append-only so replayed rows are skipped; insights and market are
// replaced with the latest computed value.
func (r *ValidationPostgres) Save(ctx context.Context, session *entity.ValidationSession) error {
	validationID, err := uuid.Parse(session.ID)
	if err != nil {
		return &entity.PersistenceError{Op: "save", Err: fmt.Errorf("parse validation ID: %w", err)}
	}

	if session.UserID == "" {
		return entity.ErrMissingUserID
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO validations (id, user_id, idea, selected_persona, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			selected_persona = EXCLUDED.selected_persona,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		validationID, session.UserID, session.Idea, session.SelectedPersona,
		string(session.Status), session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return &entity.PersistenceError{Op: "save", Err: fmt.Errorf("upsert validation: %w", err)}
	}

	for i, persona := range session.Personas {
		profile, err := json.Marshal(persona)
		if err != nil {
			return &entity.PersistenceError{Op: "save", Err: fmt.Errorf("marshal persona profile: %w", err)}
		}

		_, err = r.db.Exec(ctx, `
			INSERT INTO validation_personas (validation_id, position, name, role, profile)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (validation_id, name) DO NOTHING`,
			validationID, i, persona.Name, persona.Role, profile,
		)
		if err != nil {
			return &entity.PersistenceError{Op: "save", Err: fmt.Errorf("insert persona: %w", err)}
		}
	}

	for personaName, turns := range session.Conversations {
		for seq, turn := range turns {
			_, err = r.db.Exec(ctx, `
				INSERT INTO validation_turns (validation_id, persona_name, seq, turn_role, message)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (validation_id, persona_name, seq) DO NOTHING`,
				validationID, personaName, seq, string(turn.Role), turn.Message,
			)
			if err != nil {
				return &entity.PersistenceError{Op: "save", Err: fmt.Errorf("insert turn: %w", err)}
			}
		}
	}

	for personaName, insights := range session.Insights {
		if insights == nil {
			continue
		}

		payload, err := json.Marshal(insights)
		if err != nil {
			return &entity.PersistenceError{Op: "save", Err: fmt.Errorf("marshal insights: %w", err)}
		}

		_, err = r.db.Exec(ctx, `
			INSERT INTO validation_insights (validation_id, persona_name, payload)
			VALUES ($1, $2, $3)
			ON CONFLICT (validation_id, persona_name) DO UPDATE SET payload = EXCLUDED.payload`,
			validationID, personaName, payload,
		)
		if err != nil {
			return &entity.PersistenceError{Op: "save", Err: fmt.Errorf("upsert insights: %w", err)}
		}
	}

	if session.MarketAnalysis != nil {
		payload, err := json.Marshal(session.MarketAnalysis)
		if err != nil {
			return &entity.PersistenceError{Op: "save", Err: fmt.Errorf("marshal market analysis: %w", err)}
		}

		_, err = r.db.Exec(ctx, `
			INSERT INTO validation_market (validation_id, payload)
			VALUES ($1, $2)
			ON CONFLICT (validation_id) DO UPDATE SET payload = EXCLUDED.payload`,
			validationID, payload,
		)
		if err != nil {
			return &entity.PersistenceError{Op: "save", Err: fmt.Errorf("upsert market analysis: %w", err)}
		}
	}

	return nil
}

// Get loads one persisted validation with its nested children.
func (r *ValidationPostgres) Get(ctx context.Context, id string) (*entity.ValidationRecord, error) {
	validationID, err := uuid.Parse(id)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "get", Err: fmt.Errorf("parse validation ID: %w", err)}
	}

	record := &entity.ValidationRecord{}
	var status string

	err = r.db.QueryRow(ctx, `
		SELECT id, user_id, idea, selected_persona, status, created_at, updated_at
		FROM validations WHERE id = $1`,
		validationID,
	).Scan(&record.ID, &record.UserID, &record.Idea, &record.SelectedPersona,
		&status, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrValidationNotFound
		}
		return nil, &entity.PersistenceError{Op: "get", Err: fmt.Errorf("get validation: %w", err)}
	}
	record.Status = entity.ValidationStatus(status)

	if err := r.loadChildren(ctx, validationID, record); err != nil {
		return nil, err
	}

	return record, nil
}

// ListByUser returns a user's validations newest-first. A limit of 0
// means no limit.
func (r *ValidationPostgres) ListByUser(ctx context.Context, userID string, limit int) (
	[]*entity.ValidationRecord, error,
) {
	if userID == "" {
		return nil, entity.ErrMissingUserID
	}

	query := `
		SELECT id, user_id, idea, selected_persona, status, created_at, updated_at
		FROM validations WHERE user_id = $1
		ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "list", Err: fmt.Errorf("list validations: %w", err)}
	}
	defer rows.Close()

	var records []*entity.ValidationRecord
	for rows.Next() {
		record := &entity.ValidationRecord{}
		var status string

		err := rows.Scan(&record.ID, &record.UserID, &record.Idea, &record.SelectedPersona,
			&status, &record.CreatedAt, &record.UpdatedAt)
		if err != nil {
			return nil, &entity.PersistenceError{Op: "list", Err: fmt.Errorf("scan validation: %w", err)}
		}
		record.Status = entity.ValidationStatus(status)

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &entity.PersistenceError{Op: "list", Err: fmt.Errorf("iterate validations: %w", err)}
	}

	for _, record := range records {
		validationID, err := uuid.Parse(record.ID)
		if err != nil {
			return nil, &entity.PersistenceError{Op: "list", Err: fmt.Errorf("parse validation ID: %w", err)}
		}
		if err := r.loadChildren(ctx, validationID, record); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func (r *ValidationPostgres) loadChildren(ctx context.Context, validationID uuid.UUID, record *entity.ValidationRecord) error {
	rows, err := r.db.Query(ctx, `
		SELECT profile FROM validation_personas
		WHERE validation_id = $1 ORDER BY position`,
		validationID,
	)
	if err != nil {
		return &entity.PersistenceError{Op: "get", Err: fmt.Errorf("load personas: %w", err)}
	}
	defer rows.Close()

	record.Personas = []entity.Persona{}
	for rows.Next() {
		var profile []byte
		if err := rows.Scan(&profile); err != nil {
			return &entity.PersistenceError{Op: "get", Err: fmt.Errorf("scan persona: %w", err)}
		}

		var persona entity.Persona
		if err := json.Unmarshal(profile, &persona); err != nil {
			return &entity.PersistenceError{Op: "get", Err: fmt.Errorf("unmarshal persona profile: %w", err)}
		}

		record.Personas = append(record.Personas, persona)
	}
	if err := rows.Err(); err != nil {
		return &entity.PersistenceError{Op: "get", Err: fmt.Errorf("iterate personas: %w", err)}
	}

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM validation_turns WHERE validation_id = $1`,
		validationID,
	).Scan(&record.TurnCount)
	if err != nil {
		return &entity.PersistenceError{Op: "get", Err: fmt.Errorf("count turns: %w", err)}
	}

	// The record surfaces the selected persona's insights; with no
	// selection yet there is nothing to show.
	if record.SelectedPersona != nil {
		var payload []byte
		err = r.db.QueryRow(ctx, `
			SELECT payload FROM validation_insights
			WHERE validation_id = $1 AND persona_name = $2`,
			validationID, *record.SelectedPersona,
		).Scan(&payload)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return &entity.PersistenceError{Op: "get", Err: fmt.Errorf("load insights: %w", err)}
		}
		if payload != nil {
			record.Insights = &entity.Insights{}
			if err := json.Unmarshal(payload, record.Insights); err != nil {
				return &entity.PersistenceError{Op: "get", Err: fmt.Errorf("unmarshal insights: %w", err)}
			}
		}
	}

	var marketPayload []byte
	err = r.db.QueryRow(ctx, `
		SELECT payload FROM validation_market WHERE validation_id = $1`,
		validationID,
	).Scan(&marketPayload)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return &entity.PersistenceError{Op: "get", Err: fmt.Errorf("load market analysis: %w", err)}
	}
	if marketPayload != nil {
		record.MarketAnalysis = &entity.MarketAnalysis{}
		if err := json.Unmarshal(marketPayload, record.MarketAnalysis); err != nil {
			return &entity.PersistenceError{Op: "get", Err: fmt.Errorf("unmarshal market analysis: %w", err)}
		}
	}

	return nil
}

// Stats derives usage statistics for a user from persisted rows.
func (r *ValidationPostgres) Stats(ctx context.Context, userID string) (*entity.UsageStats, error) {
	if userID == "" {
		return nil, entity.ErrMissingUserID
	}

	rows, err := r.db.Query(ctx, `
		SELECT status, created_at FROM validations WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "stats", Err: fmt.Errorf("load validations: %w", err)}
	}
	defer rows.Close()

	var metas []ValidationMeta
	for rows.Next() {
		var meta ValidationMeta
		var status string
		if err := rows.Scan(&status, &meta.CreatedAt); err != nil {
			return nil, &entity.PersistenceError{Op: "stats", Err: fmt.Errorf("scan validation: %w", err)}
		}
		meta.Status = entity.ValidationStatus(status)
		metas = append(metas, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, &entity.PersistenceError{Op: "stats", Err: fmt.Errorf("iterate validations: %w", err)}
	}

	var conversations int
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT (t.validation_id, t.persona_name))
		FROM validation_turns t
		JOIN validations v ON v.id = t.validation_id
		WHERE v.user_id = $1`,
		userID,
	).Scan(&conversations)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "stats", Err: fmt.Errorf("count conversations: %w", err)}
	}

	var biases int
	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(jsonb_array_length(COALESCE(i.payload->'question_biases', '[]'::jsonb))), 0)
		FROM validation_insights i
		JOIN validations v ON v.id = i.validation_id
		WHERE v.user_id = $1`,
		userID,
	).Scan(&biases)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "stats", Err: fmt.Errorf("count biases: %w", err)}
	}

	stats := AggregateUsageStats(metas, conversations, biases, timeNow())

	return &stats, nil
}
