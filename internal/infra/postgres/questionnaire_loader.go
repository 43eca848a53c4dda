package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"polcoord/internal/domain"
)

// QuestionnaireLoader loads questionnaire JSONB from Postgres.
type QuestionnaireLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionnaireLoader(pool *pgxpool.Pool) *QuestionnaireLoader {
	return &QuestionnaireLoader{pool: pool}
}

func (l *QuestionnaireLoader) LoadQuestionnaire(ctx context.Context, id string) (domain.Questionnaire, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM questionnaires WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Questionnaire{}, fmt.Errorf("%w: %s", domain.ErrQuestionnaireNotFound, id)
	}
	if err != nil {
		return domain.Questionnaire{}, fmt.Errorf("load questionnaire: %w", err)
	}
	var q domain.Questionnaire
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Questionnaire{}, fmt.Errorf("unmarshal questionnaire: %w", err)
	}
	q.ID = id
	return q, nil
}

// Publish validates q and upserts it under q.ID.
func (l *QuestionnaireLoader) Publish(ctx context.Context, q domain.Questionnaire) error {
	if q.ID == "" {
		return errors.New("publish questionnaire: empty id")
	}
	if err := q.Validate(); err != nil {
		return fmt.Errorf("publish questionnaire: %w", err)
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal questionnaire: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO questionnaires (id, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		q.ID, string(raw))
	if err != nil {
		return fmt.Errorf("publish questionnaire: %w", err)
	}
	return nil
}
