package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"prep-quiz-service/internal/domain"
)

// AttemptStore persists graded attempts as JSONB rows. The table is
// append-only; the aggregator reads the full history.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Append(ctx context.Context, attempt domain.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO attempts (id, learner_id, submitted_at, data) VALUES ($1, $2, $3, $4::jsonb)`,
		attempt.ID, attempt.LearnerID, attempt.SubmittedAt, raw)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) All(ctx context.Context) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM attempts ORDER BY submitted_at`)
	if err != nil {
		return nil, fmt.Errorf("scan attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		var attempt domain.Attempt
		if err := json.Unmarshal(raw, &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read attempts: %w", err)
	}
	return attempts, nil
}
