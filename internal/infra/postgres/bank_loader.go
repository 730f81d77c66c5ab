package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"prep-quiz-service/internal/domain"
)

// BankLoader reads the lecture JSONB rows that make up the question bank.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.Lecture, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM lectures ORDER BY lecture_number`)
	if err != nil {
		return nil, fmt.Errorf("load lectures: %w", err)
	}
	defer rows.Close()

	var lectures []domain.Lecture
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan lecture: %w", err)
		}
		var lecture domain.Lecture
		if err := json.Unmarshal(raw, &lecture); err != nil {
			return nil, fmt.Errorf("unmarshal lecture: %w", err)
		}
		lectures = append(lectures, lecture)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read lectures: %w", err)
	}
	return lectures, nil
}
